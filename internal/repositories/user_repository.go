package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
)

var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetByEmail(ctx context.Context, email string, groupID int) (*models.User, error)
	Create(ctx context.Context, email string, groupID int) (int64, error)
	AllowedEmailPatterns(ctx context.Context, groupID int) ([]string, error)
	GetChangedEmail(ctx context.Context, oldEmail string, groupID int) (*models.ChangedEmail, error)
	HasSharingKey(ctx context.Context, email string, groupID int) (bool, error)
}

type userRepository struct {
	DB *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string, groupID int) (*models.User, error) {
	const q = `
		SELECT id, email, group_id, encrypted_data, sharing_public_key
		FROM users
		WHERE email=$1 AND group_id=$2
	`
	var u models.User
	if err := r.DB.GetContext(ctx, &u, q, email, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, email string, groupID int) (int64, error) {
	const q = `
		INSERT INTO users (email, group_id) VALUES ($1, $2) RETURNING id
	`
	var id int64
	if err := r.DB.QueryRowxContext(ctx, q, email, groupID).Scan(&id); err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (r *userRepository) AllowedEmailPatterns(ctx context.Context, groupID int) ([]string, error) {
	const q = `
		SELECT pattern FROM allowed_emails WHERE group_id=$1
	`
	var patterns []string
	if err := r.DB.SelectContext(ctx, &patterns, q, groupID); err != nil {
		return nil, fmt.Errorf("list allowed email patterns: %w", err)
	}
	return patterns, nil
}

func (r *userRepository) GetChangedEmail(ctx context.Context, oldEmail string, groupID int) (*models.ChangedEmail, error) {
	const q = `
		SELECT user_id, old_email, new_email, group_id
		FROM changed_emails
		WHERE old_email=$1 AND group_id=$2
	`
	var ce models.ChangedEmail
	if err := r.DB.GetContext(ctx, &ce, q, oldEmail, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get changed email: %w", err)
	}
	return &ce, nil
}

func (r *userRepository) HasSharingKey(ctx context.Context, email string, groupID int) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE email=$1 AND group_id=$2 AND sharing_public_key IS NOT NULL
		)
	`
	var ok bool
	if err := r.DB.GetContext(ctx, &ok, q, email, groupID); err != nil {
		return false, fmt.Errorf("check sharing key: %w", err)
	}
	return ok, nil
}
