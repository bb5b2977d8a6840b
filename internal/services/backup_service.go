package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/repositories"
)

// BackupResult carries the escrowed encrypted backup. The server never
// sees it in clear.
type BackupResult struct {
	EncryptedPasswordBackup *string `json:"encryptedPasswordBackup"`
}

type BackupService interface {
	// GetPasswordBackup releases the escrowed backup to an authorized
	// device presenting a valid, unexpired, single-use reset token.
	GetPasswordBackup(ctx context.Context, groupID int, req *models.GetPasswordBackupRequest) (*BackupResult, error)
}

type backupService struct {
	devices    repositories.DeviceRepository
	resets     repositories.PasswordResetRepository
	gate       AuthGate
	challenges ChallengeService
	log        *zap.Logger
	now        func() time.Time
}

func NewBackupService(
	devices repositories.DeviceRepository,
	resets repositories.PasswordResetRepository,
	gate AuthGate,
	challenges ChallengeService,
	log *zap.Logger,
) BackupService {
	return &backupService{
		devices:    devices,
		resets:     resets,
		gate:       gate,
		challenges: challenges,
		log:        log,
		now:        time.Now,
	}
}

func (s *backupService) GetPasswordBackup(ctx context.Context, groupID int, req *models.GetPasswordBackupRequest) (*BackupResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.UserEmail))
	if email == "" || req.DeviceID == "" || req.ResetToken == "" {
		return nil, ErrUnauthorized
	}

	row, err := s.devices.GetBackupAuthRow(ctx, email, req.DeviceID, groupID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	cred := CredentialFromRequest(req.DeviceAccessCode, req.DeviceChallengeResponse)
	if cred == nil {
		// Not yet authenticated: start the challenge round trip.
		challenge, err := s.challenges.IssueDeviceChallenge(ctx, row.DeviceID)
		if err != nil {
			return nil, err
		}
		return nil, &ChallengeRequiredError{DeviceChallenge: challenge}
	}
	if !s.gate.CheckDeviceAuthorization(ctx, row.DeviceID, cred, row.AccessCodeHash, row.SessionAuthChallenge, row.SessionAuthChallengeExpTime, row.DevicePublicKey) {
		return nil, ErrUnauthorized
	}

	// The reset token states are distinguishable: the caller already
	// proved control of the device.
	switch {
	case row.ResetRequestID == nil:
		return nil, ErrNoResetRequest
	case row.ResetToken == nil || *row.ResetToken != req.ResetToken:
		return nil, ErrBadResetToken
	case row.ResetTokenExpirationDate == nil || s.now().After(*row.ResetTokenExpirationDate):
		return nil, ErrResetExpired
	}

	// Single use: the delete is conditional on the token still being
	// there, so a concurrent redemption cannot double-consume it.
	ok, err := s.resets.Consume(ctx, *row.ResetRequestID, req.ResetToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoResetRequest
	}

	// Successful recovery proves current legitimate control; clear any
	// accumulated lockout.
	if err := s.devices.ClearLockout(ctx, req.DeviceID, groupID); err != nil {
		s.log.Error("clear lockout after backup recovery", zap.String("device", req.DeviceID), zap.Error(err))
	}

	return &BackupResult{EncryptedPasswordBackup: row.EncryptedPasswordBackup}, nil
}
