package persistence

import (
	"context"
	"strings"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
)

// Backend names accepted by New.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMinio    = "minio"
	BackendRedis    = "redis"
)

// Backends lists every supported backend name.
var Backends = []string{BackendFile, BackendSQLite, BackendPostgres, BackendMinio, BackendRedis}

// Config selects and configures a Store backend.
type Config struct {
	Backend     string
	Retention   int
	Dir         string
	SQLitePath  string
	PostgresDSN string
	Minio       MinioConfig
	Redis       RedisConfig
}

// New opens the configured backend.
func New(ctx context.Context, cfg Config, logger logging.Logger) (Store, error) {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		return NewFileStore(cfg.Dir, retention, logger)
	case BackendSQLite:
		return OpenSQLStore(ctx, DialectSQLite, cfg.SQLitePath, retention, logger)
	case BackendPostgres:
		return OpenSQLStore(ctx, DialectPostgres, cfg.PostgresDSN, retention, logger)
	case BackendMinio:
		return NewMinioStore(ctx, cfg.Minio, retention, logger)
	case BackendRedis:
		return OpenRedisStore(ctx, cfg.Redis, retention, logger)
	}
	return nil, apperrors.Wrapf(apperrors.ErrUnsupported, "persistence backend %q", cfg.Backend)
}
