package models

import "time"

// Authorization lifecycle of a device. The two revoked states are
// terminal: no transition ever leaves them.
const (
	StatusPending        = "PENDING"
	StatusAuthorized     = "AUTHORIZED"
	StatusRevokedByAdmin = "REVOKED_BY_ADMIN"
	StatusRevokedByUser  = "REVOKED_BY_USER"
)

// Device is one app installation paired (or pairing) with a user
// account. (user_id, device_unique_id, group_id) is unique.
type Device struct {
	ID             int64  `db:"id" json:"id"`
	UserID         int64  `db:"user_id" json:"user_id"`
	GroupID        int    `db:"group_id" json:"group_id"`
	DeviceUniqueID string `db:"device_unique_id" json:"device_unique_id"`
	DeviceName     string `db:"device_name" json:"device_name"`
	DeviceType     string `db:"device_type" json:"device_type"`
	OSVersion      string `db:"os_version" json:"os_version"`
	AppVersion     string `db:"app_version" json:"app_version"`

	// One-way bcrypt derivation of the device access code. The plaintext
	// code is never persisted.
	AccessCodeHash string `db:"access_code_hash" json:"-"`

	AuthorizationStatus string `db:"authorization_status" json:"authorization_status"`

	// Pairing code. Non-nil only while PENDING, cleared exactly when the
	// device becomes AUTHORIZED.
	AuthorizationCode      *string    `db:"authorization_code" json:"-"`
	AuthCodeExpirationDate *time.Time `db:"auth_code_expiration_date" json:"-"`

	DevicePublicKey             []byte     `db:"device_public_key" json:"-"`
	SessionAuthChallenge        *string    `db:"session_auth_challenge" json:"-"`
	SessionAuthChallengeExpTime *time.Time `db:"session_auth_challenge_exp_time" json:"-"`

	PasswordChallengeErrorCount   int        `db:"password_challenge_error_count" json:"-"`
	PasswordChallengeBlockedUntil *time.Time `db:"password_challenge_blocked_until" json:"-"`

	EncryptedPasswordBackup *string `db:"encrypted_password_backup" json:"-"`
}

// PendingDevice is the row shape used while confirming a pairing code:
// the device joined with its owner, restricted to PENDING rows matching
// the presented code.
type PendingDevice struct {
	ID                     int64      `db:"id"`
	UserID                 int64      `db:"user_id"`
	AccessCodeHash         string     `db:"access_code_hash"`
	AuthCodeExpirationDate *time.Time `db:"auth_code_expiration_date"`
}

// DeviceAuthInfo is the row shape backing challenge issuance: the device
// joined with its owner plus derived presence flags.
type DeviceAuthInfo struct {
	UserID              int64   `db:"uid"`
	DeviceID            int64   `db:"did"`
	EncryptedData       *string `db:"encrypted_data"`
	HasAccessCodeHash   bool    `db:"has_access_code_hash"`
	HasDevicePublicKey  bool    `db:"has_device_public_key"`
	AuthorizationStatus string  `db:"authorization_status"`
}

// BackupAuthRow is the row shape backing password-backup retrieval: the
// authorized device, its challenge material, and the device's reset
// request if one exists.
type BackupAuthRow struct {
	DeviceID                    int64      `db:"id"`
	UserID                      int64      `db:"user_id"`
	AccessCodeHash              *string    `db:"access_code_hash"`
	EncryptedPasswordBackup     *string    `db:"encrypted_password_backup"`
	DevicePublicKey             []byte     `db:"device_public_key"`
	SessionAuthChallenge        *string    `db:"session_auth_challenge"`
	SessionAuthChallengeExpTime *time.Time `db:"session_auth_challenge_exp_time"`

	ResetRequestID           *int64     `db:"reset_request_id"`
	ResetToken               *string    `db:"reset_token"`
	ResetTokenExpirationDate *time.Time `db:"reset_token_expiration_date"`
}
