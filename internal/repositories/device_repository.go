package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
)

type DeviceRepository interface {
	GetByUniqueID(ctx context.Context, userID int64, deviceUniqueID string, groupID int) (*models.Device, error)
	CreatePending(ctx context.Context, d *models.Device) error
	RenewPending(ctx context.Context, userID int64, deviceUniqueID string, groupID int, deviceName, accessCodeHash, code string, expiresAt time.Time) error

	// Pairing confirmation.
	GetPendingForConfirmation(ctx context.Context, email, deviceUniqueID, code string, groupID int) (*models.PendingDevice, error)
	ConfirmPairing(ctx context.Context, deviceID int64, code string) (bool, error)

	// Challenge material.
	SetSessionChallenge(ctx context.Context, deviceID int64, challenge string, expiresAt time.Time) error
	ClearSessionChallenge(ctx context.Context, deviceID int64) error

	// Authentication-gate row shapes.
	GetAuthInfo(ctx context.Context, email, deviceUniqueID string, groupID int) (*models.DeviceAuthInfo, error)
	GetBackupAuthRow(ctx context.Context, email, deviceUniqueID string, groupID int) (*models.BackupAuthRow, error)

	// Lockout counters.
	IncrementPasswordChallengeFailures(ctx context.Context, deviceID int64) (int, error)
	SetPasswordChallengeBlock(ctx context.Context, deviceID int64, blockedUntil time.Time) error
	ClearLockout(ctx context.Context, deviceUniqueID string, groupID int) error

	DistinctAuthorizedAppVersions(ctx context.Context) ([]string, error)
}

type deviceRepository struct {
	DB *sqlx.DB
}

func NewDeviceRepository(db *sqlx.DB) DeviceRepository {
	return &deviceRepository{DB: db}
}

func (r *deviceRepository) GetByUniqueID(ctx context.Context, userID int64, deviceUniqueID string, groupID int) (*models.Device, error) {
	const q = `
		SELECT id, user_id, group_id, device_unique_id, device_name, device_type,
		       os_version, app_version, access_code_hash, authorization_status,
		       authorization_code, auth_code_expiration_date, device_public_key,
		       session_auth_challenge, session_auth_challenge_exp_time,
		       password_challenge_error_count, password_challenge_blocked_until,
		       encrypted_password_backup
		FROM user_devices
		WHERE user_id=$1 AND device_unique_id=$2 AND group_id=$3
	`
	var d models.Device
	if err := r.DB.GetContext(ctx, &d, q, userID, deviceUniqueID, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return &d, nil
}

func (r *deviceRepository) CreatePending(ctx context.Context, d *models.Device) error {
	const q = `
		INSERT INTO user_devices (
			user_id, device_name, device_type, os_version, app_version,
			device_unique_id, access_code_hash, authorization_status,
			authorization_code, auth_code_expiration_date, group_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`
	if err := r.DB.QueryRowxContext(ctx, q,
		d.UserID,
		d.DeviceName,
		d.DeviceType,
		d.OSVersion,
		d.AppVersion,
		d.DeviceUniqueID,
		d.AccessCodeHash,
		d.AuthorizationStatus,
		d.AuthorizationCode,
		d.AuthCodeExpirationDate,
		d.GroupID,
	).Scan(&d.ID); err != nil {
		return fmt.Errorf("create pending device: %w", err)
	}
	return nil
}

func (r *deviceRepository) RenewPending(ctx context.Context, userID int64, deviceUniqueID string, groupID int, deviceName, accessCodeHash, code string, expiresAt time.Time) error {
	const q = `
		UPDATE user_devices
		SET device_name=$1, access_code_hash=$2, authorization_status='PENDING',
		    authorization_code=$3, auth_code_expiration_date=$4
		WHERE user_id=$5 AND device_unique_id=$6 AND group_id=$7
	`
	if _, err := r.DB.ExecContext(ctx, q, deviceName, accessCodeHash, code, expiresAt, userID, deviceUniqueID, groupID); err != nil {
		return fmt.Errorf("renew pending device: %w", err)
	}
	return nil
}

func (r *deviceRepository) GetPendingForConfirmation(ctx context.Context, email, deviceUniqueID, code string, groupID int) (*models.PendingDevice, error) {
	const q = `
		SELECT ud.id AS id,
		       users.id AS user_id,
		       ud.access_code_hash AS access_code_hash,
		       ud.auth_code_expiration_date AS auth_code_expiration_date
		FROM user_devices AS ud
		INNER JOIN users ON ud.user_id = users.id
		WHERE users.email=$1
		  AND ud.device_unique_id=$2
		  AND ud.authorization_status='PENDING'
		  AND ud.authorization_code=$3
		  AND users.group_id=$4
	`
	var p models.PendingDevice
	if err := r.DB.GetContext(ctx, &p, q, email, deviceUniqueID, code, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pending device: %w", err)
	}
	return &p, nil
}

// ConfirmPairing flips a PENDING device to AUTHORIZED and clears its
// pairing code in one conditional update. Returns false when the row no
// longer matches the predicate, e.g. when a concurrent confirmation
// already consumed the code.
func (r *deviceRepository) ConfirmPairing(ctx context.Context, deviceID int64, code string) (bool, error) {
	const q = `
		UPDATE user_devices
		SET authorization_status='AUTHORIZED', authorization_code=NULL, auth_code_expiration_date=NULL
		WHERE id=$1 AND authorization_status='PENDING' AND authorization_code=$2
	`
	res, err := r.DB.ExecContext(ctx, q, deviceID, code)
	if err != nil {
		return false, fmt.Errorf("confirm pairing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("confirm pairing rows affected: %w", err)
	}
	return n == 1, nil
}

// SetSessionChallenge overwrites any prior challenge for the device.
// Only the most recently issued challenge is ever valid.
func (r *deviceRepository) SetSessionChallenge(ctx context.Context, deviceID int64, challenge string, expiresAt time.Time) error {
	const q = `
		UPDATE user_devices
		SET session_auth_challenge=$1, session_auth_challenge_exp_time=$2
		WHERE id=$3
	`
	if _, err := r.DB.ExecContext(ctx, q, challenge, expiresAt, deviceID); err != nil {
		return fmt.Errorf("set session challenge: %w", err)
	}
	return nil
}

func (r *deviceRepository) ClearSessionChallenge(ctx context.Context, deviceID int64) error {
	const q = `
		UPDATE user_devices
		SET session_auth_challenge=NULL, session_auth_challenge_exp_time=NULL
		WHERE id=$1
	`
	if _, err := r.DB.ExecContext(ctx, q, deviceID); err != nil {
		return fmt.Errorf("clear session challenge: %w", err)
	}
	return nil
}

func (r *deviceRepository) GetAuthInfo(ctx context.Context, email, deviceUniqueID string, groupID int) (*models.DeviceAuthInfo, error) {
	const q = `
		SELECT u.id AS uid,
		       ud.id AS did,
		       u.encrypted_data AS encrypted_data,
		       COALESCE(char_length(ud.access_code_hash) > 0, false) AS has_access_code_hash,
		       COALESCE(octet_length(ud.device_public_key) > 0, false) AS has_device_public_key,
		       ud.authorization_status AS authorization_status
		FROM user_devices AS ud
		INNER JOIN users AS u ON ud.user_id = u.id
		WHERE u.email=$1 AND ud.device_unique_id=$2 AND u.group_id=$3
	`
	var info models.DeviceAuthInfo
	if err := r.DB.GetContext(ctx, &info, q, email, deviceUniqueID, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get device auth info: %w", err)
	}
	return &info, nil
}

func (r *deviceRepository) GetBackupAuthRow(ctx context.Context, email, deviceUniqueID string, groupID int) (*models.BackupAuthRow, error) {
	const q = `
		SELECT user_devices.id AS id,
		       users.id AS user_id,
		       user_devices.access_code_hash AS access_code_hash,
		       user_devices.encrypted_password_backup AS encrypted_password_backup,
		       user_devices.device_public_key AS device_public_key,
		       user_devices.session_auth_challenge AS session_auth_challenge,
		       user_devices.session_auth_challenge_exp_time AS session_auth_challenge_exp_time,
		       password_reset_request.id AS reset_request_id,
		       password_reset_request.reset_token AS reset_token,
		       password_reset_request.reset_token_expiration_date AS reset_token_expiration_date
		FROM user_devices
		INNER JOIN users ON user_devices.user_id = users.id
		LEFT JOIN password_reset_request ON user_devices.id = password_reset_request.device_id
		WHERE users.email=$1
		  AND user_devices.device_unique_id=$2
		  AND user_devices.authorization_status='AUTHORIZED'
		  AND user_devices.group_id=$3
		LIMIT 1
	`
	var row models.BackupAuthRow
	if err := r.DB.GetContext(ctx, &row, q, email, deviceUniqueID, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get backup auth row: %w", err)
	}
	return &row, nil
}

// IncrementPasswordChallengeFailures bumps the failure counter and
// returns its new value so the lockout policy can decide on a block.
func (r *deviceRepository) IncrementPasswordChallengeFailures(ctx context.Context, deviceID int64) (int, error) {
	const q = `
		UPDATE user_devices
		SET password_challenge_error_count = password_challenge_error_count + 1
		WHERE id=$1
		RETURNING password_challenge_error_count
	`
	var count int
	if err := r.DB.QueryRowxContext(ctx, q, deviceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment password challenge failures: %w", err)
	}
	return count, nil
}

func (r *deviceRepository) SetPasswordChallengeBlock(ctx context.Context, deviceID int64, blockedUntil time.Time) error {
	const q = `
		UPDATE user_devices
		SET password_challenge_blocked_until=$1
		WHERE id=$2
	`
	if _, err := r.DB.ExecContext(ctx, q, blockedUntil, deviceID); err != nil {
		return fmt.Errorf("set password challenge block: %w", err)
	}
	return nil
}

func (r *deviceRepository) ClearLockout(ctx context.Context, deviceUniqueID string, groupID int) error {
	const q = `
		UPDATE user_devices
		SET password_challenge_error_count=0, password_challenge_blocked_until=NULL
		WHERE device_unique_id=$1 AND group_id=$2
	`
	if _, err := r.DB.ExecContext(ctx, q, deviceUniqueID, groupID); err != nil {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

func (r *deviceRepository) DistinctAuthorizedAppVersions(ctx context.Context) ([]string, error) {
	const q = `
		SELECT DISTINCT(app_version) FROM user_devices
		WHERE authorization_status='AUTHORIZED'
		ORDER BY app_version DESC
	`
	var versions []string
	if err := r.DB.SelectContext(ctx, &versions, q); err != nil {
		return nil, fmt.Errorf("list authorized app versions: %w", err)
	}
	return versions, nil
}
