package persistence

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/registry"
)

const (
	activeFileName = "active.yaml"
	backupDirName  = "backups"
	yamlExt        = ".yaml"
)

// FileStore keeps snapshots as YAML documents in a directory:
//
//	<dir>/active.yaml
//	<dir>/backups/<backup id>.yaml
//
// Every write goes to a temp file in the same directory and is renamed into
// place, so a crash never leaves a partially written document.
type FileStore struct {
	dir       string
	retention int
	logger    logging.Logger

	mu sync.Mutex
}

// NewFileStore creates the directory layout under dir.
func NewFileStore(dir string, retention int, logger logging.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, apperrors.RequiredField("persistence.dir")
	}
	if err := os.MkdirAll(filepath.Join(dir, backupDirName), 0o755); err != nil {
		return nil, persistenceFailure(err, "create snapshot directory")
	}
	return &FileStore{dir: dir, retention: retention, logger: logging.OrNop(logger)}, nil
}

// Name returns the backend name
func (s *FileStore) Name() string { return "file" }

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) backupPath(id string) string {
	return filepath.Join(s.dir, backupDirName, id+yamlExt)
}

// Backup writes snap to the backup directory and prunes old backups
func (s *FileStore) Backup(ctx context.Context, snap *registry.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := snap.BackupID()
	path := s.backupPath(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	data, err := Encode(snap, FormatYAML)
	if err != nil {
		return "", persistenceFailure(err, "encode backup")
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", persistenceFailure(err, "write backup "+id)
	}

	if err := s.prune(); err != nil {
		s.logger.Warnw("Failed to prune snapshot backups", "error", err)
	}
	return id, nil
}

func (s *FileStore) prune() error {
	ids, err := s.backupIDs()
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range pruneCandidates(ids, s.retention) {
		if err := os.Remove(s.backupPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		s.logger.Debugw("Pruned snapshot backup", "backup_id", id)
	}
	return errors.Join(errs...)
}

func (s *FileStore) backupIDs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, backupDirName))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, yamlExt) {
			continue
		}
		id := strings.TrimSuffix(name, yamlExt)
		if ValidateBackupID(id) == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Publish atomically replaces active.yaml
func (s *FileStore) Publish(ctx context.Context, snap *registry.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := Encode(snap, FormatYAML)
	if err != nil {
		return persistenceFailure(err, "encode snapshot")
	}
	if err := writeFileAtomic(filepath.Join(s.dir, activeFileName), data); err != nil {
		return persistenceFailure(err, "publish snapshot")
	}
	return nil
}

// Restore loads a backup or the defaults
func (s *FileStore) Restore(ctx context.Context, backupID string) (*registry.Snapshot, error) {
	if backupID == DefaultsID {
		return registry.DefaultSnapshot(), nil
	}
	if err := ValidateBackupID(backupID); err != nil {
		return nil, err
	}
	snap, err := readSnapshot(s.backupPath(backupID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Wrap(apperrors.ErrBackupNotFound, backupID)
	}
	return snap, err
}

// Active loads active.yaml
func (s *FileStore) Active(ctx context.Context) (*registry.Snapshot, error) {
	snap, err := readSnapshot(filepath.Join(s.dir, activeFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.ErrNoActiveSnapshot
	}
	return snap, err
}

// ListBackups reads every backup, newest first
func (s *FileStore) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	ids, err := s.backupIDs()
	if err != nil {
		return nil, persistenceFailure(err, "list backups")
	}
	infos := make([]BackupInfo, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := readSnapshot(s.backupPath(id))
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

func readSnapshot(path string) (*registry.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, FormatYAML)
}

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
