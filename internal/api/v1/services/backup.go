package services

import (
	"context"

	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/app/persistence"
	"embedding-harmonizer/internal/app/registry"
)

// BackupLister reads the snapshot history
type BackupLister interface {
	Name() string
	ListBackups(ctx context.Context) ([]persistence.BackupInfo, error)
}

// Restorer republishes a backup as the active snapshot
type Restorer interface {
	Restore(ctx context.Context, backupID string) (*registry.Snapshot, error)
}

type backupService struct {
	store    BackupLister
	restorer Restorer
}

// NewBackupService creates a BackupService
func NewBackupService(store BackupLister, restorer Restorer) BackupService {
	return &backupService{store: store, restorer: restorer}
}

func (s *backupService) ListBackups(ctx context.Context) (*dto.BackupListResponse, error) {
	backups, err := s.store.ListBackups(ctx)
	if err != nil {
		return nil, err
	}
	if backups == nil {
		backups = []persistence.BackupInfo{}
	}
	return &dto.BackupListResponse{Backend: s.store.Name(), Backups: backups}, nil
}

func (s *backupService) Restore(ctx context.Context, backupID string) (*dto.RestoreResponse, error) {
	if backupID != persistence.DefaultsID {
		if err := persistence.ValidateBackupID(backupID); err != nil {
			return nil, err
		}
	}

	snap, err := s.restorer.Restore(context.WithoutCancel(ctx), backupID)
	if err != nil {
		return nil, err
	}
	return &dto.RestoreResponse{
		BackupID:    backupID,
		Version:     snap.Version(),
		GeneratedAt: snap.GeneratedAt(),
		Models:      snap.Len(),
	}, nil
}
