package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
)

type SharedAccountRepository interface {
	IsRecipient(ctx context.Context, itemID, userID int64, groupID int) (bool, error)
	ListContacts(ctx context.Context, itemID int64, groupID int) ([]models.SharedContact, error)

	// RemoveRecipient deletes the membership only while at least one
	// other manager remains, so the last-manager invariant holds even
	// under concurrent removals.
	RemoveRecipient(ctx context.Context, itemID, userID int64, groupID int) (bool, error)
}

type sharedAccountRepository struct {
	DB *sqlx.DB
}

func NewSharedAccountRepository(db *sqlx.DB) SharedAccountRepository {
	return &sharedAccountRepository{DB: db}
}

func (r *sharedAccountRepository) IsRecipient(ctx context.Context, itemID, userID int64, groupID int) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM shared_account_users
			WHERE shared_account_id=$1 AND user_id=$2 AND group_id=$3
		)
	`
	var ok bool
	if err := r.DB.GetContext(ctx, &ok, q, itemID, userID, groupID); err != nil {
		return false, fmt.Errorf("check shared item recipient: %w", err)
	}
	return ok, nil
}

func (r *sharedAccountRepository) ListContacts(ctx context.Context, itemID int64, groupID int) ([]models.SharedContact, error) {
	const q = `
		SELECT users.id AS id, users.email AS email, sau.is_manager AS is_manager
		FROM users
		INNER JOIN shared_account_users AS sau ON sau.user_id = users.id
		WHERE sau.shared_account_id=$1 AND users.group_id=$2
	`
	var contacts []models.SharedContact
	if err := r.DB.SelectContext(ctx, &contacts, q, itemID, groupID); err != nil {
		return nil, fmt.Errorf("list shared item contacts: %w", err)
	}
	return contacts, nil
}

func (r *sharedAccountRepository) RemoveRecipient(ctx context.Context, itemID, userID int64, groupID int) (bool, error) {
	const q = `
		DELETE FROM shared_account_users
		WHERE shared_account_id=$1 AND user_id=$2 AND group_id=$3
		  AND EXISTS (
			SELECT 1 FROM shared_account_users
			WHERE shared_account_id=$1 AND user_id!=$2 AND is_manager=true AND group_id=$3
		  )
	`
	res, err := r.DB.ExecContext(ctx, q, itemID, userID, groupID)
	if err != nil {
		return false, fmt.Errorf("remove shared item recipient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove shared item recipient rows affected: %w", err)
	}
	return n == 1, nil
}
