package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/services"
)

type PairingHandler struct {
	pairing services.PairingService
	log     *zap.Logger
}

func NewPairingHandler(pairing services.PairingService, log *zap.Logger) *PairingHandler {
	return &PairingHandler{pairing: pairing, log: log}
}

// RequestAccess starts or refreshes the pairing of a device. A fresh
// code answers with 204: the code itself only travels by email.
func (h *PairingHandler) RequestAccess(c *gin.Context) {
	var req models.RequestAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	result, err := h.pairing.RequestAccess(c.Request.Context(), groupIDFromPath(c), &req)
	if err != nil {
		respondServiceError(c, h.log, "requestAccess", err)
		return
	}
	if result.AuthorizationStatus != "" {
		c.JSON(http.StatusOK, gin.H{"authorizationStatus": result.AuthorizationStatus})
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckDevice redeems a pairing code and flips the device to
// AUTHORIZED.
func (h *PairingHandler) CheckDevice(c *gin.Context) {
	var req models.CheckDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	if err := h.pairing.ConfirmDevice(c.Request.Context(), groupIDFromPath(c), &req); err != nil {
		respondServiceError(c, h.log, "checkDevice", err)
		return
	}
	c.Status(http.StatusOK)
}
