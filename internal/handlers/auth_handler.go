package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/services"
)

type AuthHandler struct {
	gate services.AuthGate
	log  *zap.Logger
}

func NewAuthHandler(gate services.AuthGate, log *zap.Logger) *AuthHandler {
	return &AuthHandler{gate: gate, log: log}
}

// GetAuthenticationChallenges hands out the device challenge and, when
// vault data exists, the password challenge derived from it.
func (h *AuthHandler) GetAuthenticationChallenges(c *gin.Context) {
	var req models.GetAuthenticationChallengesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	challenges, err := h.gate.GetAuthenticationChallenges(c.Request.Context(), groupIDFromPath(c), req.UserEmail, req.DeviceID)
	var emptyVault *services.EmptyVaultError
	if errors.As(err, &emptyVault) {
		// Nothing to authenticate against yet, but the device challenge
		// still lets the client bootstrap.
		c.JSON(http.StatusNotFound, gin.H{
			"error":           "empty_data",
			"deviceChallenge": emptyVault.DeviceChallenge,
		})
		return
	}
	if err != nil {
		respondServiceError(c, h.log, "getAuthenticationChallenges", err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}
