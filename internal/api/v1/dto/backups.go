package dto

import (
	"time"

	"embedding-harmonizer/internal/app/persistence"
)

// BackupListResponse lists stored snapshots, newest first
type BackupListResponse struct {
	Backend string                   `json:"backend" example:"file"`
	Backups []persistence.BackupInfo `json:"backups"`
}

// RestoreRequest names the backup to restore, or "defaults"
type RestoreRequest struct {
	BackupID string `json:"backup_id" binding:"required" example:"20250304T100000.000000000Z"`
}

// RestoreResponse describes the snapshot published by a restore
type RestoreResponse struct {
	BackupID    string    `json:"backup_id"`
	Version     uint64    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Models      int       `json:"models"`
}
