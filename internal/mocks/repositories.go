// Package mocks holds hand-written testify mocks for the repository
// and collaborator interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/repositories"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string, groupID int) (*models.User, error) {
	args := m.Called(ctx, email, groupID)
	var u *models.User
	if v := args.Get(0); v != nil {
		u = v.(*models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepository) Create(ctx context.Context, email string, groupID int) (int64, error) {
	args := m.Called(ctx, email, groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *UserRepository) AllowedEmailPatterns(ctx context.Context, groupID int) ([]string, error) {
	args := m.Called(ctx, groupID)
	var patterns []string
	if v := args.Get(0); v != nil {
		patterns = v.([]string)
	}
	return patterns, args.Error(1)
}

func (m *UserRepository) GetChangedEmail(ctx context.Context, oldEmail string, groupID int) (*models.ChangedEmail, error) {
	args := m.Called(ctx, oldEmail, groupID)
	var ce *models.ChangedEmail
	if v := args.Get(0); v != nil {
		ce = v.(*models.ChangedEmail)
	}
	return ce, args.Error(1)
}

func (m *UserRepository) HasSharingKey(ctx context.Context, email string, groupID int) (bool, error) {
	args := m.Called(ctx, email, groupID)
	return args.Bool(0), args.Error(1)
}

type DeviceRepository struct {
	mock.Mock
}

func (m *DeviceRepository) GetByUniqueID(ctx context.Context, userID int64, deviceUniqueID string, groupID int) (*models.Device, error) {
	args := m.Called(ctx, userID, deviceUniqueID, groupID)
	var d *models.Device
	if v := args.Get(0); v != nil {
		d = v.(*models.Device)
	}
	return d, args.Error(1)
}

func (m *DeviceRepository) CreatePending(ctx context.Context, d *models.Device) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *DeviceRepository) RenewPending(ctx context.Context, userID int64, deviceUniqueID string, groupID int, deviceName, accessCodeHash, code string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, deviceUniqueID, groupID, deviceName, accessCodeHash, code, expiresAt)
	return args.Error(0)
}

func (m *DeviceRepository) GetPendingForConfirmation(ctx context.Context, email, deviceUniqueID, code string, groupID int) (*models.PendingDevice, error) {
	args := m.Called(ctx, email, deviceUniqueID, code, groupID)
	var p *models.PendingDevice
	if v := args.Get(0); v != nil {
		p = v.(*models.PendingDevice)
	}
	return p, args.Error(1)
}

func (m *DeviceRepository) ConfirmPairing(ctx context.Context, deviceID int64, code string) (bool, error) {
	args := m.Called(ctx, deviceID, code)
	return args.Bool(0), args.Error(1)
}

func (m *DeviceRepository) SetSessionChallenge(ctx context.Context, deviceID int64, challenge string, expiresAt time.Time) error {
	args := m.Called(ctx, deviceID, challenge, expiresAt)
	return args.Error(0)
}

func (m *DeviceRepository) ClearSessionChallenge(ctx context.Context, deviceID int64) error {
	args := m.Called(ctx, deviceID)
	return args.Error(0)
}

func (m *DeviceRepository) GetAuthInfo(ctx context.Context, email, deviceUniqueID string, groupID int) (*models.DeviceAuthInfo, error) {
	args := m.Called(ctx, email, deviceUniqueID, groupID)
	var info *models.DeviceAuthInfo
	if v := args.Get(0); v != nil {
		info = v.(*models.DeviceAuthInfo)
	}
	return info, args.Error(1)
}

func (m *DeviceRepository) GetBackupAuthRow(ctx context.Context, email, deviceUniqueID string, groupID int) (*models.BackupAuthRow, error) {
	args := m.Called(ctx, email, deviceUniqueID, groupID)
	var row *models.BackupAuthRow
	if v := args.Get(0); v != nil {
		row = v.(*models.BackupAuthRow)
	}
	return row, args.Error(1)
}

func (m *DeviceRepository) IncrementPasswordChallengeFailures(ctx context.Context, deviceID int64) (int, error) {
	args := m.Called(ctx, deviceID)
	return args.Int(0), args.Error(1)
}

func (m *DeviceRepository) SetPasswordChallengeBlock(ctx context.Context, deviceID int64, blockedUntil time.Time) error {
	args := m.Called(ctx, deviceID, blockedUntil)
	return args.Error(0)
}

func (m *DeviceRepository) ClearLockout(ctx context.Context, deviceUniqueID string, groupID int) error {
	args := m.Called(ctx, deviceUniqueID, groupID)
	return args.Error(0)
}

func (m *DeviceRepository) DistinctAuthorizedAppVersions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var versions []string
	if v := args.Get(0); v != nil {
		versions = v.([]string)
	}
	return versions, args.Error(1)
}

type PasswordResetRepository struct {
	mock.Mock
}

func (m *PasswordResetRepository) Create(ctx context.Context, deviceID int64, token string, expiresAt time.Time, encryptedBackup *string) (*models.PasswordResetRequest, error) {
	args := m.Called(ctx, deviceID, token, expiresAt, encryptedBackup)
	var pr *models.PasswordResetRequest
	if v := args.Get(0); v != nil {
		pr = v.(*models.PasswordResetRequest)
	}
	return pr, args.Error(1)
}

func (m *PasswordResetRepository) Consume(ctx context.Context, id int64, token string) (bool, error) {
	args := m.Called(ctx, id, token)
	return args.Bool(0), args.Error(1)
}

type SharedAccountRepository struct {
	mock.Mock
}

func (m *SharedAccountRepository) IsRecipient(ctx context.Context, itemID, userID int64, groupID int) (bool, error) {
	args := m.Called(ctx, itemID, userID, groupID)
	return args.Bool(0), args.Error(1)
}

func (m *SharedAccountRepository) ListContacts(ctx context.Context, itemID int64, groupID int) ([]models.SharedContact, error) {
	args := m.Called(ctx, itemID, groupID)
	var contacts []models.SharedContact
	if v := args.Get(0); v != nil {
		contacts = v.([]models.SharedContact)
	}
	return contacts, args.Error(1)
}

func (m *SharedAccountRepository) RemoveRecipient(ctx context.Context, itemID, userID int64, groupID int) (bool, error) {
	args := m.Called(ctx, itemID, userID, groupID)
	return args.Bool(0), args.Error(1)
}

type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *StatsRepository) GroupStats(ctx context.Context) ([]repositories.GroupStat, error) {
	args := m.Called(ctx)
	var stats []repositories.GroupStat
	if v := args.Get(0); v != nil {
		stats = v.([]repositories.GroupStat)
	}
	return stats, args.Error(1)
}

func (m *StatsRepository) PruneDailyStats(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StatsRepository) DailyStats(ctx context.Context) ([]repositories.DailyStat, error) {
	args := m.Called(ctx)
	var stats []repositories.DailyStat
	if v := args.Get(0); v != nil {
		stats = v.([]repositories.DailyStat)
	}
	return stats, args.Error(1)
}

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendDeviceRequestEmail(to, deviceName, deviceType, deviceOS, code string, expiresAt time.Time) error {
	args := m.Called(to, deviceName, deviceType, deviceOS, code, expiresAt)
	return args.Error(0)
}
