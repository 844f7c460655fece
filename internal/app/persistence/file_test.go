package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

var baseTime = time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

func testSnapshot(t *testing.T, version uint64, at time.Time) *registry.Snapshot {
	t.Helper()
	snap, err := registry.NewSnapshot(version, at, []registry.ModelDescriptor{
		{
			ModelKey:        "mock/a",
			DisplayName:     "a",
			Provider:        registry.ProviderMock,
			NativeDimension: registry.Dim(384),
			Status:          registry.StatusAvailable,
		},
		{
			ModelKey:               "mock/c",
			DisplayName:            "c",
			Provider:               registry.ProviderMock,
			NativeDimension:        registry.Dim(3072),
			ConfigurableDimensions: true,
			SupportedDimensions:    []int{256, 1024, 3072},
			Status:                 registry.StatusNew,
		},
		{
			ModelKey:    "mock/d",
			DisplayName: "d",
			Provider:    registry.ProviderMock,
			Status:      registry.StatusUnavailable,
		},
	})
	require.NoError(t, err)
	return snap
}

func newFileStore(t *testing.T, retention int) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), retention, nil)
	require.NoError(t, err)
	return store
}

func TestFileStoreRequiresDir(t *testing.T) {
	_, err := NewFileStore("", 3, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestFileStoreBackupAndRestore(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := newFileStore(t, 5)
	snap := testSnapshot(t, 3, baseTime)

	// Act
	id, err := store.Backup(ctx, snap)
	require.NoError(t, err)
	restored, err := store.Restore(ctx, id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "20250304T100000.000000000Z", id)
	assert.True(t, snap.Equal(restored))
	assert.FileExists(t, filepath.Join(store.dir, backupDirName, id+yamlExt))
}

func TestFileStoreBackupIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, 5)
	snap := testSnapshot(t, 1, baseTime)

	first, err := store.Backup(ctx, snap)
	require.NoError(t, err)
	second, err := store.Backup(ctx, snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	backups, err := store.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestFileStorePrunesOldestBackups(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := newFileStore(t, 3)

	// Act
	for i := 0; i < 5; i++ {
		_, err := store.Backup(ctx, testSnapshot(t, uint64(i+1), baseTime.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	backups, err := store.ListBackups(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, uint64(5), backups[0].Version)
	assert.Equal(t, uint64(4), backups[1].Version)
	assert.Equal(t, uint64(3), backups[2].Version)
	assert.Equal(t, 3, backups[0].Models)

	_, err = store.Restore(ctx, baseTime.Format(registry.BackupIDLayout))
	assert.ErrorIs(t, err, apperrors.ErrBackupNotFound)
}

func TestFileStorePublishAndActive(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, 3)

	_, err := store.Active(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSnapshot)

	first := testSnapshot(t, 1, baseTime)
	second := testSnapshot(t, 2, baseTime.Add(time.Minute))
	require.NoError(t, store.Publish(ctx, first))
	require.NoError(t, store.Publish(ctx, second))

	active, err := store.Active(ctx)
	require.NoError(t, err)
	assert.True(t, second.Equal(active))

	entries, err := os.ReadDir(store.dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestFileStorePublishFailureIsPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, 3)
	require.NoError(t, os.RemoveAll(store.dir))

	err := store.Publish(ctx, testSnapshot(t, 1, baseTime))

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPersistenceFailure)
	assert.True(t, apperrors.IsHard(err))
}

func TestFileStoreRestore(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, 3)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "defaults with no backups", id: DefaultsID},
		{name: "unknown backup", id: "20240101T000000.000000000Z", wantErr: apperrors.ErrBackupNotFound},
		{name: "path traversal", id: "../active", wantErr: apperrors.ErrBackupNotFound},
		{name: "empty id", id: "", wantErr: apperrors.ErrBackupNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := store.Restore(ctx, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, snap)
				return
			}
			require.NoError(t, err)
			report := registry.BuildReport(snap)
			assert.GreaterOrEqual(t, report.Available, 1)
		})
	}
}

func TestFileStoreSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, 3)
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, backupDirName, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, backupDirName, "latest.yaml"), []byte("x"), 0o644))

	backups, err := store.ListBackups(ctx)

	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, 3)

	snap, fromStore, err := Bootstrap(ctx, store)
	require.NoError(t, err)
	assert.False(t, fromStore)
	assert.True(t, registry.DefaultSnapshot().Equal(snap))

	published := testSnapshot(t, 7, baseTime)
	require.NoError(t, store.Publish(ctx, published))

	snap, fromStore, err = Bootstrap(ctx, store)
	require.NoError(t, err)
	assert.True(t, fromStore)
	assert.Equal(t, uint64(7), snap.Version())
}

func TestBootstrapCorruptActive(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t, 3)
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, activeFileName), []byte("schema_version: 9\n"), 0o644))

	_, _, err := Bootstrap(ctx, store)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistenceFailure))
}

func TestPruneCandidates(t *testing.T) {
	ids := []string{
		"20250103T000000.000000000Z",
		"20250101T000000.000000000Z",
		"20250104T000000.000000000Z",
		"20250102T000000.000000000Z",
	}

	tests := []struct {
		name      string
		retention int
		want      []string
	}{
		{name: "under retention", retention: 5, want: nil},
		{name: "exactly retention", retention: 4, want: nil},
		{name: "drops oldest first", retention: 2, want: []string{"20250101T000000.000000000Z", "20250102T000000.000000000Z"}},
		{name: "zero uses default", retention: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pruneCandidates(ids, tt.retention))
		})
	}
}
