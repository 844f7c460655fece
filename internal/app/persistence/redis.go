package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/registry"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// DefaultRedisPrefix namespaces every key the store writes.
const DefaultRedisPrefix = "harmonizer:registry:"

// RedisStore keeps snapshots as JSON strings. Backup ids are tracked in a
// sorted set scored by generation time so pruning drops the oldest first.
//
//	<prefix>active         active snapshot document
//	<prefix>backup:<id>    backup document
//	<prefix>backups        sorted set of backup ids
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention int
	logger    logging.Logger
}

// OpenRedisStore connects to Redis and verifies the connection
func OpenRedisStore(ctx context.Context, cfg RedisConfig, retention int, logger logging.Logger) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, apperrors.RequiredField("persistence.redis.addr")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, persistenceFailure(err, "connect to redis")
	}
	return NewRedisStore(client, cfg.KeyPrefix, retention, logger), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, prefix string, retention int, logger logging.Logger) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, retention: retention, logger: logging.OrNop(logger)}
}

// Name returns the backend name
func (s *RedisStore) Name() string { return "redis" }

// Close closes the client
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) activeKey() string          { return s.prefix + "active" }
func (s *RedisStore) indexKey() string           { return s.prefix + "backups" }
func (s *RedisStore) backupKey(id string) string { return s.prefix + "backup:" + id }

// Backup stores snap with SETNX and indexes it in one MULTI/EXEC, then
// prunes. The index entry is written even when the document already exists,
// so a backup is never left unindexed.
func (s *RedisStore) Backup(ctx context.Context, snap *registry.Snapshot) (string, error) {
	id := snap.BackupID()
	doc, err := Encode(snap, FormatJSON)
	if err != nil {
		return "", persistenceFailure(err, "encode backup")
	}

	score := float64(snap.GeneratedAt().UnixNano())
	var created *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, s.backupKey(id), doc, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: score, Member: id})
		return nil
	})
	if err != nil {
		return "", persistenceFailure(err, "store backup "+id)
	}
	if !created.Val() {
		return id, nil
	}

	if err := s.prune(ctx); err != nil {
		s.logger.Warnw("Failed to prune snapshot backups", "error", err)
	}
	return id, nil
}

func (s *RedisStore) prune(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return err
	}
	stale := pruneCandidates(ids, s.retention)
	if len(stale) == 0 {
		return nil
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range stale {
			pipe.Del(ctx, s.backupKey(id))
			pipe.ZRem(ctx, s.indexKey(), id)
		}
		return nil
	})
	if err == nil {
		s.logger.Debugw("Pruned snapshot backups", "count", len(stale))
	}
	return err
}

// Publish replaces the active document with a single SET
func (s *RedisStore) Publish(ctx context.Context, snap *registry.Snapshot) error {
	doc, err := Encode(snap, FormatJSON)
	if err != nil {
		return persistenceFailure(err, "encode snapshot")
	}
	if err := s.client.Set(ctx, s.activeKey(), doc, 0).Err(); err != nil {
		return persistenceFailure(err, "publish snapshot")
	}
	return nil
}

// Restore loads a backup or the defaults
func (s *RedisStore) Restore(ctx context.Context, backupID string) (*registry.Snapshot, error) {
	if backupID == DefaultsID {
		return registry.DefaultSnapshot(), nil
	}
	if err := ValidateBackupID(backupID); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.backupKey(backupID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.Wrap(apperrors.ErrBackupNotFound, backupID)
	}
	if err != nil {
		return nil, persistenceFailure(err, "load backup "+backupID)
	}
	return Decode(data, FormatJSON)
}

// Active loads the active document
func (s *RedisStore) Active(ctx context.Context) (*registry.Snapshot, error) {
	data, err := s.client.Get(ctx, s.activeKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNoActiveSnapshot
	}
	if err != nil {
		return nil, persistenceFailure(err, "load active snapshot")
	}
	return Decode(data, FormatJSON)
}

// ListBackups loads every indexed backup, newest first
func (s *RedisStore) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, persistenceFailure(err, "list backups")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.backupKey(id)
	}
	docs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, persistenceFailure(err, "load backups")
	}

	infos := make([]BackupInfo, 0, len(ids))
	for i, raw := range docs {
		doc, ok := raw.(string)
		if !ok {
			s.logger.Warnw("Backup indexed but missing", "backup_id", ids[i])
			continue
		}
		snap, err := Decode([]byte(doc), FormatJSON)
		if err != nil {
			s.logger.Warnw("Skipping unreadable backup", "backup_id", ids[i], "error", err)
			continue
		}
		info := backupInfo(snap)
		info.ID = ids[i]
		infos = append(infos, info)
	}
	sortNewestFirst(infos)
	return infos, nil
}
