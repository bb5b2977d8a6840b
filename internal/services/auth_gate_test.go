package services

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/mocks"
	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/repositories"
)

func newAuthGate(users *mocks.UserRepository, devices *mocks.DeviceRepository) *authGate {
	return &authGate{
		users:      users,
		devices:    devices,
		verifier:   fastVerifier(),
		challenges: newChallengeService(devices),
		lockout:    LockoutPolicy{MaxAttempts: 3, BlockDuration: time.Hour},
		log:        zap.NewNop(),
		now:        frozenNow,
	}
}

func validBlob(t *testing.T) string {
	t.Helper()
	raw := make([]byte, blobSaltLen+blobIVLen+64)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestCredentialFromRequest(t *testing.T) {
	assert.Nil(t, CredentialFromRequest("", ""))
	assert.Equal(t, LegacyAccessCode{Code: "c"}, CredentialFromRequest("c", ""))
	assert.Equal(t, ChallengeResponse{Response: "r"}, CredentialFromRequest("", "r"))
	// legacy wins when a client sends both
	assert.Equal(t, LegacyAccessCode{Code: "c"}, CredentialFromRequest("c", "r"))
}

func TestLockoutPolicy(t *testing.T) {
	p := LockoutPolicy{MaxAttempts: 3, BlockDuration: time.Hour}

	assert.Nil(t, p.BlockedUntil(1, testNow))
	assert.Nil(t, p.BlockedUntil(2, testNow))
	require.NotNil(t, p.BlockedUntil(3, testNow))
	assert.Equal(t, testNow.Add(time.Hour), *p.BlockedUntil(3, testNow))
	assert.NotNil(t, p.BlockedUntil(4, testNow))

	// a zero threshold disables the lockout entirely
	assert.Nil(t, LockoutPolicy{}.BlockedUntil(100, testNow))
}

func TestGetAuthenticationChallenges(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown device reports revoked", func(t *testing.T) {
		users := new(mocks.UserRepository)
		devices := new(mocks.DeviceRepository)
		devices.On("GetAuthInfo", ctx, "a@x.com", "d1", 1).Return(nil, repositories.ErrNotFound).Once()
		users.On("GetChangedEmail", ctx, "a@x.com", 1).Return(nil, repositories.ErrNotFound).Once()

		_, err := newAuthGate(users, devices).GetAuthenticationChallenges(ctx, 1, "a@x.com", "d1")
		assert.ErrorIs(t, err, ErrRevoked)
	})

	t.Run("migrated email redirects", func(t *testing.T) {
		users := new(mocks.UserRepository)
		devices := new(mocks.DeviceRepository)
		devices.On("GetAuthInfo", ctx, "old@x.com", "d1", 1).Return(nil, repositories.ErrNotFound).Once()
		users.On("GetChangedEmail", ctx, "old@x.com", 1).
			Return(&models.ChangedEmail{OldEmail: "old@x.com", NewEmail: "new@x.com"}, nil).Once()

		_, err := newAuthGate(users, devices).GetAuthenticationChallenges(ctx, 1, "Old@x.com", "d1")
		var changed *EmailChangedError
		require.ErrorAs(t, err, &changed)
		assert.Equal(t, "new@x.com", changed.NewEmail)
	})

	t.Run("revoked device", func(t *testing.T) {
		devices := new(mocks.DeviceRepository)
		devices.On("GetAuthInfo", ctx, "a@x.com", "d1", 1).Return(&models.DeviceAuthInfo{
			AuthorizationStatus: models.StatusRevokedByUser,
		}, nil).Once()

		_, err := newAuthGate(new(mocks.UserRepository), devices).GetAuthenticationChallenges(ctx, 1, "a@x.com", "d1")
		assert.ErrorIs(t, err, ErrRevoked)
	})

	t.Run("pending device reports its status", func(t *testing.T) {
		devices := new(mocks.DeviceRepository)
		devices.On("GetAuthInfo", ctx, "a@x.com", "d1", 1).Return(&models.DeviceAuthInfo{
			AuthorizationStatus: models.StatusPending,
		}, nil).Once()

		_, err := newAuthGate(new(mocks.UserRepository), devices).GetAuthenticationChallenges(ctx, 1, "a@x.com", "d1")
		var other *OtherStatusError
		require.ErrorAs(t, err, &other)
		assert.Equal(t, models.StatusPending, other.Status)
	})

	t.Run("legacy device must re-pair", func(t *testing.T) {
		for _, info := range []*models.DeviceAuthInfo{
			{AuthorizationStatus: models.StatusAuthorized, HasAccessCodeHash: true, HasDevicePublicKey: true},
			{AuthorizationStatus: models.StatusAuthorized, HasAccessCodeHash: false, HasDevicePublicKey: false},
		} {
			devices := new(mocks.DeviceRepository)
			devices.On("GetAuthInfo", ctx, "a@x.com", "d1", 1).Return(info, nil).Once()

			_, err := newAuthGate(new(mocks.UserRepository), devices).GetAuthenticationChallenges(ctx, 1, "a@x.com", "d1")
			assert.ErrorIs(t, err, ErrUnauthorized)
		}
	})

	t.Run("empty vault yields only a device challenge", func(t *testing.T) {
		devices := new(mocks.DeviceRepository)
		devices.On("GetAuthInfo", ctx, "a@x.com", "d1", 1).Return(&models.DeviceAuthInfo{
			DeviceID:            3,
			AuthorizationStatus: models.StatusAuthorized,
			HasDevicePublicKey:  true,
		}, nil).Once()
		devices.On("SetSessionChallenge", ctx, int64(3), mock.AnythingOfType("string"), testNow.Add(2*time.Minute)).
			Return(nil).Once()

		result, err := newAuthGate(new(mocks.UserRepository), devices).GetAuthenticationChallenges(ctx, 1, "a@x.com", "d1")
		var emptyVault *EmptyVaultError
		require.ErrorAs(t, err, &emptyVault)
		assert.NotEmpty(t, emptyVault.DeviceChallenge)
		assert.Nil(t, result)
	})

	t.Run("full account yields both challenges", func(t *testing.T) {
		blob := validBlob(t)
		devices := new(mocks.DeviceRepository)
		devices.On("GetAuthInfo", ctx, "a@x.com", "d1", 1).Return(&models.DeviceAuthInfo{
			DeviceID:            3,
			EncryptedData:       &blob,
			AuthorizationStatus: models.StatusAuthorized,
			HasDevicePublicKey:  true,
		}, nil).Once()
		devices.On("SetSessionChallenge", ctx, int64(3), mock.AnythingOfType("string"), testNow.Add(2*time.Minute)).
			Return(nil).Once()

		result, err := newAuthGate(new(mocks.UserRepository), devices).GetAuthenticationChallenges(ctx, 1, "a@x.com", "d1")
		require.NoError(t, err)
		assert.NotEmpty(t, result.DeviceChallenge)
		assert.NotEmpty(t, result.PasswordChallenge)
		assert.NotEmpty(t, result.PasswordDerivationSalt)
		devices.AssertExpectations(t)
	})
}

func TestCheckDeviceAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy access code against stored hash", func(t *testing.T) {
		gate := newAuthGate(new(mocks.UserRepository), new(mocks.DeviceRepository))
		hash, err := gate.verifier.Hash("secret")
		require.NoError(t, err)

		assert.True(t, gate.CheckDeviceAuthorization(ctx, 3, LegacyAccessCode{Code: "secret"}, &hash, nil, nil, nil))
		assert.False(t, gate.CheckDeviceAuthorization(ctx, 3, LegacyAccessCode{Code: "wrong"}, &hash, nil, nil, nil))
		assert.False(t, gate.CheckDeviceAuthorization(ctx, 3, LegacyAccessCode{Code: "secret"}, nil, nil, nil, nil))
		assert.False(t, gate.CheckDeviceAuthorization(ctx, 3, LegacyAccessCode{Code: "secret"}, strPtr(""), nil, nil, nil))
	})

	t.Run("challenge response path", func(t *testing.T) {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		raw := make([]byte, deviceChallengeBytes)
		_, err = rand.Read(raw)
		require.NoError(t, err)
		challenge := base64.StdEncoding.EncodeToString(raw)
		response := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, raw))
		exp := timePtr(testNow.Add(time.Minute))

		devices := new(mocks.DeviceRepository)
		devices.On("ClearSessionChallenge", ctx, int64(3)).Return(nil).Once()
		gate := newAuthGate(new(mocks.UserRepository), devices)

		assert.True(t, gate.CheckDeviceAuthorization(ctx, 3, ChallengeResponse{Response: response}, nil, &challenge, exp, pub))
		devices.AssertExpectations(t)
	})

	t.Run("nil credential never passes", func(t *testing.T) {
		gate := newAuthGate(new(mocks.UserRepository), new(mocks.DeviceRepository))
		assert.False(t, gate.CheckDeviceAuthorization(ctx, 3, nil, nil, nil, nil, nil))
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown device", func(t *testing.T) {
		devices := new(mocks.DeviceRepository)
		devices.On("GetBackupAuthRow", ctx, "a@x.com", "d1", 1).Return(nil, repositories.ErrNotFound).Once()

		_, err := newAuthGate(new(mocks.UserRepository), devices).Authenticate(ctx, 1, "a@x.com", "d1", LegacyAccessCode{Code: "c"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("no credential starts the challenge round trip", func(t *testing.T) {
		devices := new(mocks.DeviceRepository)
		devices.On("GetBackupAuthRow", ctx, "a@x.com", "d1", 1).
			Return(&models.BackupAuthRow{DeviceID: 3, UserID: 7}, nil).Once()
		devices.On("SetSessionChallenge", ctx, int64(3), mock.AnythingOfType("string"), testNow.Add(2*time.Minute)).
			Return(nil).Once()

		_, err := newAuthGate(new(mocks.UserRepository), devices).Authenticate(ctx, 1, "a@x.com", "d1", nil)
		var required *ChallengeRequiredError
		require.ErrorAs(t, err, &required)
		assert.NotEmpty(t, required.DeviceChallenge)
	})

	t.Run("valid credential yields the identity triple", func(t *testing.T) {
		hash, err := fastVerifier().Hash("secret")
		require.NoError(t, err)

		devices := new(mocks.DeviceRepository)
		devices.On("GetBackupAuthRow", ctx, "a@x.com", "d1", 1).
			Return(&models.BackupAuthRow{DeviceID: 3, UserID: 7, AccessCodeHash: &hash}, nil).Once()
		gate := newAuthGate(new(mocks.UserRepository), devices)

		user, err := gate.Authenticate(ctx, 1, "A@x.com ", "d1", LegacyAccessCode{Code: "secret"})
		require.NoError(t, err)
		assert.Equal(t, &AuthenticatedUser{UserID: 7, GroupID: 1, Email: "a@x.com"}, user)
	})

	t.Run("bad credential", func(t *testing.T) {
		hash, err := fastVerifier().Hash("secret")
		require.NoError(t, err)

		devices := new(mocks.DeviceRepository)
		devices.On("GetBackupAuthRow", ctx, "a@x.com", "d1", 1).
			Return(&models.BackupAuthRow{DeviceID: 3, UserID: 7, AccessCodeHash: &hash}, nil).Once()
		gate := newAuthGate(new(mocks.UserRepository), devices)

		_, err = gate.Authenticate(ctx, 1, "a@x.com", "d1", LegacyAccessCode{Code: "wrong"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRegisterPasswordChallengeFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("below the threshold nothing is blocked", func(t *testing.T) {
		devices := new(mocks.DeviceRepository)
		devices.On("IncrementPasswordChallengeFailures", ctx, int64(3)).Return(2, nil).Once()

		gate := newAuthGate(new(mocks.UserRepository), devices)
		require.NoError(t, gate.RegisterPasswordChallengeFailure(ctx, 3))
		devices.AssertNotCalled(t, "SetPasswordChallengeBlock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("threshold reached blocks the device", func(t *testing.T) {
		devices := new(mocks.DeviceRepository)
		devices.On("IncrementPasswordChallengeFailures", ctx, int64(3)).Return(3, nil).Once()
		devices.On("SetPasswordChallengeBlock", ctx, int64(3), testNow.Add(time.Hour)).Return(nil).Once()

		gate := newAuthGate(new(mocks.UserRepository), devices)
		require.NoError(t, gate.RegisterPasswordChallengeFailure(ctx, 3))
		devices.AssertExpectations(t)
	})
}
