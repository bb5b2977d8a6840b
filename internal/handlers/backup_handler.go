package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/services"
)

type BackupHandler struct {
	backups services.BackupService
	log     *zap.Logger
}

func NewBackupHandler(backups services.BackupService, log *zap.Logger) *BackupHandler {
	return &BackupHandler{backups: backups, log: log}
}

// GetPasswordBackup releases the escrowed encrypted backup after the
// device proved itself and presented a valid single-use reset token.
func (h *BackupHandler) GetPasswordBackup(c *gin.Context) {
	var req models.GetPasswordBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	result, err := h.backups.GetPasswordBackup(c.Request.Context(), groupIDFromPath(c), &req)
	if err != nil {
		respondServiceError(c, h.log, "getPasswordBackup", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
