package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/dispatch"
	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/repositories"
	"github.com/Spheerys/UpSignOn-pro-server/internal/utils"
)

// Conservative local@domain.tld shape. Loose enough for every
// well-formed address the allow-list can contain.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// PairingResult reports the device lifecycle state after a pairing
// request. An empty status means a fresh code was issued and travels
// out-of-band only.
type PairingResult struct {
	AuthorizationStatus string
}

type PairingService interface {
	RequestAccess(ctx context.Context, groupID int, req *models.RequestAccessRequest) (*PairingResult, error)
	ConfirmDevice(ctx context.Context, groupID int, req *models.CheckDeviceRequest) error
}

type pairingService struct {
	users    repositories.UserRepository
	devices  repositories.DeviceRepository
	verifier AccessCodeVerifier
	emails   EmailService
	queue    dispatch.Submitter
	codeTTL  time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewPairingService(
	users repositories.UserRepository,
	devices repositories.DeviceRepository,
	verifier AccessCodeVerifier,
	emails EmailService,
	queue dispatch.Submitter,
	codeTTL time.Duration,
	log *zap.Logger,
) PairingService {
	return &pairingService{
		users:    users,
		devices:  devices,
		verifier: verifier,
		emails:   emails,
		queue:    queue,
		codeTTL:  codeTTL,
		log:      log,
		now:      time.Now,
	}
}

func (s *pairingService) RequestAccess(ctx context.Context, groupID int, req *models.RequestAccessRequest) (*PairingResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.UserEmail))
	if !emailRegex.MatchString(email) {
		return nil, ErrUnauthorized
	}
	if req.DeviceID == "" || req.DeviceAccessCode == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email, groupID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		// First-time users must match the per-group allow-list. This is
		// a business rule, not an enumeration boundary.
		patterns, err := s.users.AllowedEmailPatterns(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if !emailAllowed(email, patterns) {
			return nil, ErrEmailNotAllowed
		}
		id, err := s.users.Create(ctx, email, groupID)
		if err != nil {
			return nil, err
		}
		user = &models.User{ID: id, Email: email, GroupID: groupID}
	case err != nil:
		return nil, err
	}

	device, err := s.devices.GetByUniqueID(ctx, user.ID, req.DeviceID, groupID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	if device != nil {
		switch device.AuthorizationStatus {
		case models.StatusAuthorized:
			// Idempotent re-request, e.g. after an app reinstall.
			return &PairingResult{AuthorizationStatus: models.StatusAuthorized}, nil
		case models.StatusRevokedByAdmin, models.StatusRevokedByUser:
			// Revocation is terminal.
			return nil, ErrUnauthorized
		case models.StatusPending:
			if device.AuthorizationCode != nil && device.AuthCodeExpirationDate != nil && s.now().Before(*device.AuthCodeExpirationDate) {
				// Client retry: resend the same code, never rotate it.
				s.sendPairingEmail(email, req, *device.AuthorizationCode, *device.AuthCodeExpirationDate)
				return &PairingResult{AuthorizationStatus: models.StatusPending}, nil
			}
		}
	}

	hash, err := s.verifier.Hash(req.DeviceAccessCode)
	if err != nil {
		return nil, err
	}
	code := utils.NewPairingCode()
	expiresAt := s.now().Add(s.codeTTL)

	if device == nil {
		d := &models.Device{
			UserID:                 user.ID,
			GroupID:                groupID,
			DeviceUniqueID:         req.DeviceID,
			DeviceName:             req.DeviceName,
			DeviceType:             req.DeviceType,
			OSVersion:              req.DeviceOS,
			AppVersion:             req.AppVersion,
			AccessCodeHash:         hash,
			AuthorizationStatus:    models.StatusPending,
			AuthorizationCode:      &code,
			AuthCodeExpirationDate: &expiresAt,
		}
		if err := s.devices.CreatePending(ctx, d); err != nil {
			return nil, err
		}
	} else {
		// Pending and expired: rotate the code in place.
		if err := s.devices.RenewPending(ctx, user.ID, req.DeviceID, groupID, req.DeviceName, hash, code, expiresAt); err != nil {
			return nil, err
		}
	}

	s.sendPairingEmail(email, req, code, expiresAt)
	return &PairingResult{}, nil
}

func (s *pairingService) ConfirmDevice(ctx context.Context, groupID int, req *models.CheckDeviceRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.UserEmail))
	if email == "" || req.DeviceID == "" || req.DeviceAccessCode == "" || req.DeviceValidationCode == "" {
		return ErrUnauthorized
	}

	// Wrong email, device or code are indistinguishable from here on.
	pending, err := s.devices.GetPendingForConfirmation(ctx, email, req.DeviceID, req.DeviceValidationCode, groupID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}

	if !s.verifier.Verify(req.DeviceAccessCode, pending.AccessCodeHash) {
		return ErrUnauthorized
	}

	// The caller proved request correctness, so expiry is safe to
	// reveal.
	if pending.AuthCodeExpirationDate == nil || s.now().After(*pending.AuthCodeExpirationDate) {
		return ErrPairingCodeExpired
	}

	ok, err := s.devices.ConfirmPairing(ctx, pending.ID, req.DeviceValidationCode)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent confirmation consumed the code first.
		return ErrUnauthorized
	}
	return nil
}

func (s *pairingService) sendPairingEmail(to string, req *models.RequestAccessRequest, code string, expiresAt time.Time) {
	deviceName, deviceType, deviceOS := req.DeviceName, req.DeviceType, req.DeviceOS
	s.queue.Submit("device-request-email", func() error {
		return s.emails.SendDeviceRequestEmail(to, deviceName, deviceType, deviceOS, code, expiresAt)
	})
}

func emailAllowed(email string, patterns []string) bool {
	domain := ""
	if i := strings.LastIndex(email, "@"); i >= 0 {
		domain = email[i+1:]
	}
	for _, p := range patterns {
		p = strings.ToLower(p)
		if strings.HasPrefix(p, "*@") {
			if domain == strings.TrimPrefix(p, "*@") {
				return true
			}
		} else if email == p {
			return true
		}
	}
	return false
}
