package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/services"
)

type SharingHandler struct {
	sharing services.SharingService
	log     *zap.Logger
}

func NewSharingHandler(sharing services.SharingService, log *zap.Logger) *SharingHandler {
	return &SharingHandler{sharing: sharing, log: log}
}

func (h *SharingHandler) GetContactsForSharedItem(c *gin.Context) {
	var req models.GetContactsForSharedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	contacts, err := h.sharing.GetContactsForSharedItem(c.Request.Context(), groupIDFromPath(c), &req)
	if err != nil {
		respondServiceError(c, h.log, "getContactsForSharedItem", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

func (h *SharingHandler) StopReceivingSharing(c *gin.Context) {
	var req models.StopReceivingSharingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	if err := h.sharing.StopReceivingSharing(c.Request.Context(), groupIDFromPath(c), &req); err != nil {
		respondServiceError(c, h.log, "stopReceivingSharing", err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *SharingHandler) CheckEmailAddressForSharing(c *gin.Context) {
	var req models.CheckEmailAddressForSharingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	valid, err := h.sharing.CheckEmailAddressForSharing(c.Request.Context(), groupIDFromPath(c), &req)
	if err != nil {
		respondServiceError(c, h.log, "checkEmailAddressForSharing", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}
