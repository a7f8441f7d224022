package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/middleware"
	"github.com/sjperalta/dealer-ledger/internal/services"
)

type BackupHandler struct {
	backupService *services.BackupService
}

func NewBackupHandler(backupService *services.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// @Summary List Backups
// @Description Newest first, each with its completeness
// @Tags Backups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /backups [get]
func (h *BackupHandler) Index(c *gin.Context) {
	backups, err := h.backupService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": backups, "count": len(backups)})
}

// @Summary Create Backup
// @Description Snapshots the database and the audit log
// @Tags Backups
// @Produce json
// @Success 201 {object} map[string]string
// @Failure 503 {object} map[string]interface{}
// @Security BearerAuth
// @Router /backups [post]
func (h *BackupHandler) Create(c *gin.Context) {
	id, err := h.backupService.Create(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"backup_id": id})
}

// @Summary Restore Backup
// @Description Replaces the live data with a backup after taking a safety backup
// @Tags Backups
// @Produce json
// @Param backup_id path string true "Backup ID (YYYYMMDD_HHMMSS)"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /backups/{backup_id}/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	id := c.Param("backup_id")
	if err := h.backupService.Restore(c.Request.Context(), id, middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": id})
}

func (h *BackupHandler) Delete(c *gin.Context) {
	if err := h.backupService.Delete(c.Request.Context(), c.Param("backup_id"), middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
