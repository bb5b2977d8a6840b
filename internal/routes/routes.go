package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Spheerys/UpSignOn-pro-server/internal/handlers"
)

// SetupRoutes mounts every operation twice: once at the root for
// single-tenant deployments and once under /:groupId for multi-tenant
// ones.
func SetupRoutes(
	r *gin.Engine,
	pairingHandler *handlers.PairingHandler,
	authHandler *handlers.AuthHandler,
	backupHandler *handlers.BackupHandler,
	sharingHandler *handlers.SharingHandler,
) {
	mount := func(g gin.IRoutes) {
		g.POST("/request-access", pairingHandler.RequestAccess)
		g.GET("/check-device", pairingHandler.CheckDevice)
		g.POST("/check-device", pairingHandler.CheckDevice)
		g.POST("/get-authentication-challenges", authHandler.GetAuthenticationChallenges)
		g.POST("/get-password-backup", backupHandler.GetPasswordBackup)
		g.POST("/get-contacts-for-shared-item", sharingHandler.GetContactsForSharedItem)
		g.POST("/stop-receiving-sharing", sharingHandler.StopReceivingSharing)
		g.POST("/check-email-address-for-sharing", sharingHandler.CheckEmailAddressForSharing)
	}

	mount(r)
	mount(r.Group("/:groupId"))
}
