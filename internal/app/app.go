package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/config"
	"github.com/Spheerys/UpSignOn-pro-server/internal/dispatch"
	"github.com/Spheerys/UpSignOn-pro-server/internal/handlers"
	"github.com/Spheerys/UpSignOn-pro-server/internal/middleware"
	"github.com/Spheerys/UpSignOn-pro-server/internal/repositories"
	"github.com/Spheerys/UpSignOn-pro-server/internal/routes"
	"github.com/Spheerys/UpSignOn-pro-server/internal/services"
)

const (
	maxOpenConns    = 25
	connMaxLifetime = 5 * time.Minute
)

// Run wires the whole service together and blocks serving HTTP until
// ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// === DB ===
	db, err := sqlx.Connect("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("close database", zap.Error(err))
		}
	}()
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// === Background queue ===
	queue := dispatch.NewQueue(log, 2, 128)
	defer queue.Close()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	deviceRepo := repositories.NewDeviceRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	sharedRepo := repositories.NewSharedAccountRepository(db)
	statsRepo := repositories.NewStatsRepository(db)

	// === Services ===
	verifier := services.NewAccessCodeVerifier()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	challengeService := services.NewChallengeService(deviceRepo, cfg.Challenge.TTL, log)
	pairingService := services.NewPairingService(userRepo, deviceRepo, verifier, emailService, queue, cfg.Pairing.CodeTTL, log)
	lockout := services.LockoutPolicy{
		MaxAttempts:   cfg.Lockout.MaxAttempts,
		BlockDuration: cfg.Lockout.BlockDuration,
	}
	authGate := services.NewAuthGate(userRepo, deviceRepo, verifier, challengeService, lockout, log)
	backupService := services.NewBackupService(deviceRepo, resetRepo, authGate, challengeService, log)
	sharingService := services.NewSharingService(authGate, userRepo, sharedRepo, log)
	statusService := services.NewStatusService(statsRepo, deviceRepo, queue, cfg.Status.URL, log)

	// === Handlers ===
	pairingHandler := handlers.NewPairingHandler(pairingService, log)
	authHandler := handlers.NewAuthHandler(authGate, log)
	backupHandler := handlers.NewBackupHandler(backupService, log)
	sharingHandler := handlers.NewSharingHandler(sharingService, log)

	// === Gin ===
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))

	routes.SetupRoutes(router, pairingHandler, authHandler, backupHandler, sharingHandler)

	go statusService.Run(ctx, cfg.Status.Interval)

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("server listening", zap.String("addr", listenAddr))
	return router.Run(listenAddr)
}
