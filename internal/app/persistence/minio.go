package persistence

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/registry"
)

// MinioConfig configures the object-store backend.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// MinioStore keeps snapshots as YAML objects in an S3-compatible bucket.
// Single-object PUTs are atomic, so readers of the active object see either
// the previous or the new document.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	prefix    string
	retention int
	logger    logging.Logger
}

// NewMinioStore connects to the object store and ensures the bucket exists
func NewMinioStore(ctx context.Context, cfg MinioConfig, retention int, logger logging.Logger) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.RequiredField("persistence.minio.endpoint")
	}
	if cfg.Bucket == "" {
		return nil, apperrors.RequiredField("persistence.minio.bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, persistenceFailure(err, "create MinIO client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, persistenceFailure(err, "check bucket existence")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, persistenceFailure(err, "create bucket")
		}
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		retention: retention,
		logger:    logging.OrNop(logger),
	}, nil
}

// Name returns the backend name
func (s *MinioStore) Name() string { return "minio" }

// Close is a no-op; the client holds no persistent connection.
func (s *MinioStore) Close() error { return nil }

func (s *MinioStore) activeKey() string {
	return path.Join(s.prefix, activeFileName)
}

func (s *MinioStore) backupPrefix() string {
	return path.Join(s.prefix, backupDirName) + "/"
}

func (s *MinioStore) backupKey(id string) string {
	return s.backupPrefix() + id + yamlExt
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *MinioStore) put(ctx context.Context, key string, snap *registry.Snapshot) error {
	data, err := Encode(snap, FormatYAML)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/yaml",
		UserMetadata: map[string]string{
			"backup-id": snap.BackupID(),
		},
	})
	return err
}

func (s *MinioStore) get(ctx context.Context, key string) (*registry.Snapshot, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	return Decode(data, FormatYAML)
}

// Backup uploads snap unless an object for its id exists, then prunes
func (s *MinioStore) Backup(ctx context.Context, snap *registry.Snapshot) (string, error) {
	id := snap.BackupID()
	key := s.backupKey(id)

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err == nil {
		return id, nil
	} else if !isNoSuchKey(err) {
		return "", persistenceFailure(err, "stat backup "+id)
	}

	if err := s.put(ctx, key, snap); err != nil {
		return "", persistenceFailure(err, "upload backup "+id)
	}

	ids, err := s.backupIDs(ctx)
	if err != nil {
		s.logger.Warnw("Failed to list backups for pruning", "error", err)
		return id, nil
	}
	for _, old := range pruneCandidates(ids, s.retention) {
		if err := s.client.RemoveObject(ctx, s.bucket, s.backupKey(old), minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warnw("Failed to prune snapshot backup", "backup_id", old, "error", err)
		}
	}
	return id, nil
}

func (s *MinioStore) backupIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.backupPrefix(), Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		id := strings.TrimSuffix(strings.TrimPrefix(obj.Key, s.backupPrefix()), yamlExt)
		if ValidateBackupID(id) == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Publish overwrites the active object in a single PUT
func (s *MinioStore) Publish(ctx context.Context, snap *registry.Snapshot) error {
	if err := s.put(ctx, s.activeKey(), snap); err != nil {
		return persistenceFailure(err, "publish snapshot")
	}
	return nil
}

// Restore downloads a backup or returns the defaults
func (s *MinioStore) Restore(ctx context.Context, backupID string) (*registry.Snapshot, error) {
	if backupID == DefaultsID {
		return registry.DefaultSnapshot(), nil
	}
	if err := ValidateBackupID(backupID); err != nil {
		return nil, err
	}
	snap, err := s.get(ctx, s.backupKey(backupID))
	if isNoSuchKey(err) {
		return nil, apperrors.Wrap(apperrors.ErrBackupNotFound, backupID)
	}
	if err != nil {
		return nil, persistenceFailure(err, "download backup "+backupID)
	}
	return snap, nil
}

// Active downloads the active object
func (s *MinioStore) Active(ctx context.Context) (*registry.Snapshot, error) {
	snap, err := s.get(ctx, s.activeKey())
	if isNoSuchKey(err) {
		return nil, apperrors.ErrNoActiveSnapshot
	}
	if err != nil {
		return nil, persistenceFailure(err, "download active snapshot")
	}
	return snap, nil
}

// ListBackups downloads every retained backup, newest first
func (s *MinioStore) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	ids, err := s.backupIDs(ctx)
	if err != nil {
		return nil, persistenceFailure(err, "list backups")
	}
	infos := make([]BackupInfo, 0, len(ids))
	for _, id := range ids {
		snap, err := s.get(ctx, s.backupKey(id))
		if err != nil {
			s.logger.Warnw("Skipping unreadable backup", "backup_id", id, "error", err)
			continue
		}
		info := backupInfo(snap)
		info.ID = id
		infos = append(infos, info)
	}
	sortNewestFirst(infos)
	return infos, nil
}
