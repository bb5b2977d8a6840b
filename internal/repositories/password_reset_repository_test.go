package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetCreate(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)

	exp := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)
	backup := "ciphertext"
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO password_reset_request")).
		WithArgs(int64(3), "tok", exp, backup).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	repo := NewPasswordResetRepository(db)
	pr, err := repo.Create(ctx, 3, "tok", exp, &backup)
	require.NoError(t, err)
	assert.Equal(t, int64(11), pr.ID)
	assert.Equal(t, "PENDING", pr.Status)
	assert.Equal(t, "tok", pr.ResetToken)
}

func TestPasswordResetConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the matching request", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM password_reset_request WHERE id=$1 AND reset_token=$2")).
			WithArgs(int64(11), "tok").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPasswordResetRepository(db)
		ok, err := repo.Consume(ctx, 11, "tok")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("second redemption finds nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM password_reset_request WHERE id=$1 AND reset_token=$2")).
			WithArgs(int64(11), "tok").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewPasswordResetRepository(db)
		ok, err := repo.Consume(ctx, 11, "tok")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
