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

// Credential is the tagged union of the two authorization paths. A
// request carries exactly one of them; the dispatcher in
// CheckDeviceAuthorization keeps the paths from being conflated.
type Credential interface {
	isCredential()
}

// LegacyAccessCode authenticates pre-migration devices by their stored
// access-code hash.
type LegacyAccessCode struct {
	Code string
}

// ChallengeResponse authenticates by signing the pending device
// challenge with the device private key.
type ChallengeResponse struct {
	Response string
}

func (LegacyAccessCode) isCredential()  {}
func (ChallengeResponse) isCredential() {}

// CredentialFromRequest resolves the two optional request fields into
// at most one credential. The legacy path wins when both are present.
func CredentialFromRequest(accessCode, challengeResponse string) Credential {
	if accessCode != "" {
		return LegacyAccessCode{Code: accessCode}
	}
	if challengeResponse != "" {
		return ChallengeResponse{Response: challengeResponse}
	}
	return nil
}

// LockoutPolicy decides when repeated password-challenge failures block
// a device. The backoff curve is a tuning parameter, not a structural
// invariant, hence the injected value.
type LockoutPolicy struct {
	MaxAttempts   int
	BlockDuration time.Duration
}

// BlockedUntil returns the block deadline once the failure count
// reaches the threshold, nil before that.
func (p LockoutPolicy) BlockedUntil(failures int, now time.Time) *time.Time {
	if p.MaxAttempts <= 0 || failures < p.MaxAttempts {
		return nil
	}
	t := now.Add(p.BlockDuration)
	return &t
}

// AuthChallenges is the successful output of the challenge round trip
// bootstrap.
type AuthChallenges struct {
	DeviceChallenge        string `json:"deviceChallenge"`
	PasswordChallenge      string `json:"passwordChallenge,omitempty"`
	PasswordDerivationSalt string `json:"passwordDerivationSalt,omitempty"`
}

// AuthenticatedUser is the identity triple downstream authorizers work
// with.
type AuthenticatedUser struct {
	UserID  int64
	GroupID int
	Email   string
}

type AuthGate interface {
	GetAuthenticationChallenges(ctx context.Context, groupID int, email, deviceUniqueID string) (*AuthChallenges, error)

	// CheckDeviceAuthorization dispatches on the credential type;
	// exactly one path can grant access.
	CheckDeviceAuthorization(ctx context.Context, deviceID int64, cred Credential, accessCodeHash *string, storedChallenge *string, challengeExp *time.Time, devicePublicKey []byte) bool

	// Authenticate resolves a full identity triple for an authorized
	// device, issuing a fresh device challenge when no credential was
	// presented yet.
	Authenticate(ctx context.Context, groupID int, email, deviceUniqueID string, cred Credential) (*AuthenticatedUser, error)

	// RegisterPasswordChallengeFailure feeds the lockout policy.
	RegisterPasswordChallengeFailure(ctx context.Context, deviceID int64) error
}

type authGate struct {
	users      repositories.UserRepository
	devices    repositories.DeviceRepository
	verifier   AccessCodeVerifier
	challenges ChallengeService
	lockout    LockoutPolicy
	log        *zap.Logger
	now        func() time.Time
}

func NewAuthGate(
	users repositories.UserRepository,
	devices repositories.DeviceRepository,
	verifier AccessCodeVerifier,
	challenges ChallengeService,
	lockout LockoutPolicy,
	log *zap.Logger,
) AuthGate {
	return &authGate{
		users:      users,
		devices:    devices,
		verifier:   verifier,
		challenges: challenges,
		lockout:    lockout,
		log:        log,
		now:        time.Now,
	}
}

func (s *authGate) GetAuthenticationChallenges(ctx context.Context, groupID int, email, deviceUniqueID string) (*AuthChallenges, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || deviceUniqueID == "" {
		return nil, ErrUnauthorized
	}

	info, err := s.devices.GetAuthInfo(ctx, email, deviceUniqueID, groupID)
	if errors.Is(err, repositories.ErrNotFound) {
		// The address may have been migrated; redirect instead of
		// reporting revocation.
		ce, ceErr := s.users.GetChangedEmail(ctx, email, groupID)
		if ceErr == nil {
			return nil, &EmailChangedError{NewEmail: ce.NewEmail}
		}
		if !errors.Is(ceErr, repositories.ErrNotFound) {
			return nil, ceErr
		}
		return nil, ErrRevoked
	}
	if err != nil {
		return nil, err
	}

	switch info.AuthorizationStatus {
	case models.StatusRevokedByAdmin, models.StatusRevokedByUser:
		return nil, ErrRevoked
	case models.StatusAuthorized:
	default:
		return nil, &OtherStatusError{Status: info.AuthorizationStatus}
	}

	// Devices still carrying a legacy access-code hash, or without a
	// registered public key, must re-pair under the new scheme.
	if info.HasAccessCodeHash || !info.HasDevicePublicKey {
		return nil, ErrUnauthorized
	}

	deviceChallenge, err := s.challenges.IssueDeviceChallenge(ctx, info.DeviceID)
	if err != nil {
		return nil, err
	}

	if info.EncryptedData == nil || *info.EncryptedData == "" {
		return nil, &EmptyVaultError{DeviceChallenge: deviceChallenge}
	}

	pwd, err := s.challenges.IssuePasswordChallenge(*info.EncryptedData)
	if err != nil {
		return nil, err
	}
	return &AuthChallenges{
		DeviceChallenge:        deviceChallenge,
		PasswordChallenge:      pwd.Challenge,
		PasswordDerivationSalt: pwd.DerivationSalt,
	}, nil
}

func (s *authGate) CheckDeviceAuthorization(ctx context.Context, deviceID int64, cred Credential, accessCodeHash *string, storedChallenge *string, challengeExp *time.Time, devicePublicKey []byte) bool {
	switch c := cred.(type) {
	case LegacyAccessCode:
		if accessCodeHash == nil || *accessCodeHash == "" {
			s.log.Info("legacy access code presented without stored hash", zap.Int64("device_id", deviceID))
			return false
		}
		return s.verifier.Verify(c.Code, *accessCodeHash)
	case ChallengeResponse:
		return s.challenges.VerifyDeviceChallengeResponse(ctx, deviceID, c.Response, storedChallenge, challengeExp, devicePublicKey)
	default:
		return false
	}
}

func (s *authGate) Authenticate(ctx context.Context, groupID int, email, deviceUniqueID string, cred Credential) (*AuthenticatedUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || deviceUniqueID == "" {
		return nil, ErrUnauthorized
	}

	row, err := s.devices.GetBackupAuthRow(ctx, email, deviceUniqueID, groupID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if cred == nil {
		// First half of the round trip: hand out a challenge to answer.
		challenge, err := s.challenges.IssueDeviceChallenge(ctx, row.DeviceID)
		if err != nil {
			return nil, err
		}
		return nil, &ChallengeRequiredError{DeviceChallenge: challenge}
	}

	if !s.CheckDeviceAuthorization(ctx, row.DeviceID, cred, row.AccessCodeHash, row.SessionAuthChallenge, row.SessionAuthChallengeExpTime, row.DevicePublicKey) {
		return nil, ErrUnauthorized
	}
	return &AuthenticatedUser{UserID: row.UserID, GroupID: groupID, Email: email}, nil
}

func (s *authGate) RegisterPasswordChallengeFailure(ctx context.Context, deviceID int64) error {
	count, err := s.devices.IncrementPasswordChallengeFailures(ctx, deviceID)
	if err != nil {
		return err
	}
	if until := s.lockout.BlockedUntil(count, s.now()); until != nil {
		s.log.Warn("device blocked after repeated password challenge failures",
			zap.Int64("device_id", deviceID), zap.Int("failures", count), zap.Time("blocked_until", *until))
		return s.devices.SetPasswordChallengeBlock(ctx, deviceID, *until)
	}
	return nil
}
