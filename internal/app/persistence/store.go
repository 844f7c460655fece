// Package persistence stores registry snapshots durably: one active
// snapshot plus a bounded history of timestamped backups.
package persistence

import (
	"context"
	"errors"
	"slices"
	"time"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// DefaultsID restores the built-in default snapshot.
const DefaultsID = "defaults"

// DefaultRetention is the number of backups kept when none is configured.
const DefaultRetention = 10

// BackupInfo describes one stored backup.
type BackupInfo struct {
	ID          string    `json:"id"`
	Version     uint64    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Models      int       `json:"models"`
}

// Store persists registry snapshots. Backups are immutable once written and
// Publish never overwrites the active snapshot in place: readers of the
// store see either the previous or the new active snapshot.
type Store interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Backup stores snap under its BackupID and prunes history beyond the
	// retention count. Backing up an already stored id is a no-op.
	Backup(ctx context.Context, snap *registry.Snapshot) (string, error)
	// Publish makes snap the active snapshot.
	Publish(ctx context.Context, snap *registry.Snapshot) error
	// Restore loads a backup, or the built-in defaults for DefaultsID. It
	// does not change the active snapshot.
	Restore(ctx context.Context, backupID string) (*registry.Snapshot, error)
	// Active loads the active snapshot, or ErrNoActiveSnapshot.
	Active(ctx context.Context) (*registry.Snapshot, error)
	// ListBackups lists backups newest first.
	ListBackups(ctx context.Context) ([]BackupInfo, error)
	Close() error
}

// ValidateBackupID rejects ids that are not backup timestamps, which also
// keeps ids safe to embed in paths and keys.
func ValidateBackupID(id string) error {
	if _, err := time.Parse(registry.BackupIDLayout, id); err != nil {
		return apperrors.Wrapf(apperrors.ErrBackupNotFound, "malformed backup id %q", id)
	}
	return nil
}

// pruneCandidates returns the ids to delete so that only the newest
// retention ids remain. Backup ids sort chronologically.
func pruneCandidates(ids []string, retention int) []string {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if len(ids) <= retention {
		return nil
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return sorted[:len(sorted)-retention]
}

func backupInfo(snap *registry.Snapshot) BackupInfo {
	return BackupInfo{
		ID:          snap.BackupID(),
		Version:     snap.Version(),
		GeneratedAt: snap.GeneratedAt(),
		Models:      snap.Len(),
	}
}

func sortNewestFirst(infos []BackupInfo) {
	slices.SortFunc(infos, func(a, b BackupInfo) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}

// Bootstrap returns the snapshot the registry should start from: the active
// persisted snapshot, or the built-in defaults when none exists yet.
func Bootstrap(ctx context.Context, store Store) (*registry.Snapshot, bool, error) {
	snap, err := store.Active(ctx)
	switch {
	case err == nil:
		return snap, true, nil
	case errors.Is(err, apperrors.ErrNoActiveSnapshot):
		return registry.DefaultSnapshot(), false, nil
	default:
		return nil, false, apperrors.Mark(apperrors.ErrPersistenceFailure, err)
	}
}

func persistenceFailure(err error, action string) error {
	return apperrors.Mark(apperrors.ErrPersistenceFailure, apperrors.Wrap(err, action))
}
