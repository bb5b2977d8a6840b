package services

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/repositories"
	"github.com/Spheerys/UpSignOn-pro-server/internal/utils"
)

const (
	deviceChallengeBytes = 32

	// Vault blob layout: base64( salt[16] || iv[16] || ciphertext ).
	blobSaltLen         = 16
	blobIVLen           = 16
	pwdChallengeTailLen = 32
)

var errMalformedVaultBlob = errors.New("malformed encrypted vault blob")

// PasswordChallenge is derived deterministically from the vault blob:
// a correct client-side password derivation can answer it without the
// server ever seeing the password. Nothing here is persisted.
type PasswordChallenge struct {
	Challenge      string
	DerivationSalt string
}

type ChallengeService interface {
	// IssueDeviceChallenge stores a fresh nonce on the device row,
	// overwriting any prior unconsumed challenge, and returns it.
	IssueDeviceChallenge(ctx context.Context, deviceID int64) (string, error)

	// VerifyDeviceChallengeResponse checks a signature over the pending
	// challenge against the device public key. The caller only learns
	// pass/fail; the reason goes to the server log.
	VerifyDeviceChallengeResponse(ctx context.Context, deviceID int64, response string, storedChallenge *string, expiresAt *time.Time, devicePublicKey []byte) bool

	IssuePasswordChallenge(encryptedData string) (*PasswordChallenge, error)
}

type challengeService struct {
	devices repositories.DeviceRepository
	ttl     time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewChallengeService(devices repositories.DeviceRepository, ttl time.Duration, log *zap.Logger) ChallengeService {
	return &challengeService{devices: devices, ttl: ttl, log: log, now: time.Now}
}

func (s *challengeService) IssueDeviceChallenge(ctx context.Context, deviceID int64) (string, error) {
	nonce, err := utils.NewChallengeNonce(deviceChallengeBytes)
	if err != nil {
		return "", err
	}
	if err := s.devices.SetSessionChallenge(ctx, deviceID, nonce, s.now().Add(s.ttl)); err != nil {
		return "", err
	}
	return nonce, nil
}

func (s *challengeService) VerifyDeviceChallengeResponse(ctx context.Context, deviceID int64, response string, storedChallenge *string, expiresAt *time.Time, devicePublicKey []byte) bool {
	if storedChallenge == nil || *storedChallenge == "" {
		s.log.Info("device challenge response without pending challenge", zap.Int64("device_id", deviceID))
		return false
	}
	if expiresAt == nil || s.now().After(*expiresAt) {
		s.log.Info("device challenge expired", zap.Int64("device_id", deviceID))
		return false
	}
	if len(devicePublicKey) != ed25519.PublicKeySize {
		s.log.Info("device has no usable public key", zap.Int64("device_id", deviceID))
		return false
	}

	message, err := base64.StdEncoding.DecodeString(*storedChallenge)
	if err != nil {
		s.log.Error("stored device challenge is not base64", zap.Int64("device_id", deviceID), zap.Error(err))
		return false
	}
	signature, err := base64.StdEncoding.DecodeString(response)
	if err != nil {
		s.log.Info("device challenge response is not base64", zap.Int64("device_id", deviceID))
		return false
	}
	if !ed25519.Verify(ed25519.PublicKey(devicePublicKey), message, signature) {
		s.log.Info("device challenge signature mismatch", zap.Int64("device_id", deviceID))
		return false
	}

	// Single use: the answered challenge must not be replayable.
	if err := s.devices.ClearSessionChallenge(ctx, deviceID); err != nil {
		s.log.Error("clear session challenge", zap.Int64("device_id", deviceID), zap.Error(err))
	}
	return true
}

func (s *challengeService) IssuePasswordChallenge(encryptedData string) (*PasswordChallenge, error) {
	data, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return nil, errMalformedVaultBlob
	}
	if len(data) < blobSaltLen+blobIVLen+pwdChallengeTailLen {
		return nil, errMalformedVaultBlob
	}
	salt := data[:blobSaltLen]
	tail := data[len(data)-pwdChallengeTailLen:]
	sum := sha256.Sum256(tail)
	return &PasswordChallenge{
		Challenge:      base64.StdEncoding.EncodeToString(sum[:]),
		DerivationSalt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}
