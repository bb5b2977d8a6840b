package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/services"
)

// Single-tenant deployments omit the group segment entirely.
const defaultGroupID = 1

func groupIDFromPath(c *gin.Context) int {
	if v := c.Param("groupId"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultGroupID
}

// respondServiceError maps the service error taxonomy onto the wire.
// Authentication failures stay bodyless 401s; the named errors carry
// their code; anything unexpected is logged and collapsed to 400.
func respondServiceError(c *gin.Context, log *zap.Logger, op string, err error) {
	var otherStatus *services.OtherStatusError
	var emailChanged *services.EmailChangedError
	var challengeRequired *services.ChallengeRequiredError

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.Status(http.StatusUnauthorized)
	case errors.Is(err, services.ErrEmailNotAllowed):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "email_address_not_allowed"})
	case errors.Is(err, services.ErrRevoked):
		c.JSON(http.StatusNotFound, gin.H{"error": "revoked"})
	case errors.As(err, &otherStatus):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":               "other_authorization_status",
			"authorizationStatus": otherStatus.Status,
		})
	case errors.As(err, &emailChanged):
		c.JSON(http.StatusUnauthorized, gin.H{"newEmailAddress": emailChanged.NewEmail})
	case errors.As(err, &challengeRequired):
		c.JSON(http.StatusForbidden, gin.H{"deviceChallenge": challengeRequired.DeviceChallenge})
	case errors.Is(err, services.ErrPairingCodeExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"expired": true})
	case errors.Is(err, services.ErrNoResetRequest):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_request"})
	case errors.Is(err, services.ErrBadResetToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad_token"})
	case errors.Is(err, services.ErrResetExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "expired"})
	case errors.Is(err, services.ErrLastManager):
		c.Status(http.StatusUnauthorized)
	default:
		log.Error(op+" failed", zap.Error(err))
		c.Status(http.StatusBadRequest)
	}
}
