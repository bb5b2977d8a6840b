package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, deviceID int64, token string, expiresAt time.Time, encryptedBackup *string) (*models.PasswordResetRequest, error)

	// Consume deletes the request only if it still carries the presented
	// token, making redemption single-use even under concurrent calls.
	Consume(ctx context.Context, id int64, token string) (bool, error)
}

type passwordResetRepository struct {
	DB *sqlx.DB
}

func NewPasswordResetRepository(db *sqlx.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, deviceID int64, token string, expiresAt time.Time, encryptedBackup *string) (*models.PasswordResetRequest, error) {
	const q = `
		INSERT INTO password_reset_request (device_id, status, reset_token, reset_token_expiration_date, encrypted_password_backup)
		VALUES ($1, 'PENDING', $2, $3, $4)
		RETURNING id
	`
	pr := &models.PasswordResetRequest{
		DeviceID:                 deviceID,
		Status:                   "PENDING",
		ResetToken:               token,
		ResetTokenExpirationDate: expiresAt,
		EncryptedPasswordBackup:  encryptedBackup,
	}
	if err := r.DB.QueryRowxContext(ctx, q, deviceID, token, expiresAt, encryptedBackup).Scan(&pr.ID); err != nil {
		return nil, fmt.Errorf("create password reset request: %w", err)
	}
	return pr, nil
}

func (r *passwordResetRepository) Consume(ctx context.Context, id int64, token string) (bool, error) {
	const q = `
		DELETE FROM password_reset_request WHERE id=$1 AND reset_token=$2
	`
	res, err := r.DB.ExecContext(ctx, q, id, token)
	if err != nil {
		return false, fmt.Errorf("consume password reset request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume password reset request rows affected: %w", err)
	}
	return n == 1, nil
}
