//go:build integration
// +build integration

package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// exerciseStore runs the backup/publish/restore cycle every backend shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		snap := testSnapshot(t, uint64(i+1), baseTime.Add(time.Duration(i)*time.Second))
		_, err := store.Backup(ctx, snap)
		require.NoError(t, err)
		require.NoError(t, store.Publish(ctx, snap))
	}

	backups, err := store.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, uint64(4), backups[0].Version)

	restored, err := store.Restore(ctx, backups[1].ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), restored.Version())

	active, err := store.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), active.Version())

	_, err = store.Restore(ctx, baseTime.Format("20060102T150405.000000000Z"))
	assert.ErrorIs(t, err, apperrors.ErrBackupNotFound)
}

func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set, skipping integration test")
	}

	store, err := NewMinioStore(context.Background(), MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    "harmonizer-test",
		Prefix:    "it-" + uuid.NewString(),
	}, 2, nil)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	store, err := OpenRedisStore(context.Background(), RedisConfig{
		Addr:      addr,
		KeyPrefix: "harmonizer:it:" + uuid.NewString() + ":",
	}, 2, nil)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestPostgresStore_Integration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping integration test")
	}

	store, err := OpenSQLStore(context.Background(), DialectPostgres, dsn, 2, nil)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.db.Exec("TRUNCATE registry_backups, registry_active")
	require.NoError(t, err)

	exerciseStore(t, store)
}
