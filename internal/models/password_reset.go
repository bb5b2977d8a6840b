package models

import "time"

// PasswordResetRequest escrows access to the encrypted password backup
// behind a single-use token. Created by the admin recovery flow,
// deleted exactly once on successful redemption.
type PasswordResetRequest struct {
	ID                       int64     `db:"id" json:"id"`
	DeviceID                 int64     `db:"device_id" json:"device_id"`
	Status                   string    `db:"status" json:"status"`
	ResetToken               string    `db:"reset_token" json:"-"`
	ResetTokenExpirationDate time.Time `db:"reset_token_expiration_date" json:"-"`
	EncryptedPasswordBackup  *string   `db:"encrypted_password_backup" json:"-"`
}
