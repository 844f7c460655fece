package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"embedding-harmonizer/internal/api/middleware"
	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/api/v1/services"
)

// BackupHandler handles snapshot history endpoints
type BackupHandler struct {
	service services.BackupService
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(service services.BackupService) *BackupHandler {
	return &BackupHandler{
		service: service,
	}
}

// List handles GET /api/v1/backups
//
// @Summary List backups
// @Description Stored registry snapshots, newest first
// @Tags backups
// @Produce json
// @Success 200 {object} dto.BackupListResponse
// @Failure 503 {object} errors.APIError "Persistence unavailable"
// @Router /backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.service.ListBackups(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, backups)
}

// Restore handles POST /api/v1/backups/restore
//
// @Summary Restore a backup
// @Description Republishes a backup, or the built-in defaults for "defaults", as a new active snapshot
// @Tags backups
// @Accept json
// @Produce json
// @Param request body dto.RestoreRequest true "Backup to restore"
// @Success 200 {object} dto.RestoreResponse
// @Failure 404 {object} errors.APIError "Backup not found"
// @Failure 409 {object} errors.APIError "A cycle or restore is already running"
// @Router /backups/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	var req dto.RestoreRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp, err := h.service.Restore(c.Request.Context(), req.BackupID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
