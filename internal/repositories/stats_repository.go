package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// GroupStat is one row of the per-group usage aggregate included in the
// status ping.
type GroupStat struct {
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	NbLicencesSold int       `db:"nb_licences_sold" json:"nb_licences_sold"`
	NbUsers        int       `db:"nb_users" json:"nb_users"`
}

// DailyStat is one per-user-per-day vault security snapshot, uploaded
// by clients and aggregated into the status ping's security graph.
type DailyStat struct {
	UserID       int64     `db:"user_id"`
	Day          time.Time `db:"day"`
	NbAccounts   int       `db:"nb_accounts"`
	NbCodes      int       `db:"nb_codes"`
	NbStrong     int       `db:"nb_accounts_strong"`
	NbMedium     int       `db:"nb_accounts_medium"`
	NbWeak       int       `db:"nb_accounts_weak"`
	NbNoPassword int       `db:"nb_accounts_with_no_password"`
	NbDuplicate  int       `db:"nb_accounts_with_duplicate_password"`
	NbRed        int       `db:"nb_accounts_red"`
	NbOrange     int       `db:"nb_accounts_orange"`
	NbGreen      int       `db:"nb_accounts_green"`
}

type StatsRepository interface {
	CountUsers(ctx context.Context) (int, error)
	GroupStats(ctx context.Context) ([]GroupStat, error)

	// PruneDailyStats keeps at most one snapshot per user per day, the
	// most recent one.
	PruneDailyStats(ctx context.Context) error
	DailyStats(ctx context.Context) ([]DailyStat, error)
}

type statsRepository struct {
	DB *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &statsRepository{DB: db}
}

func (r *statsRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (r *statsRepository) GroupStats(ctx context.Context) ([]GroupStat, error) {
	const q = `
		SELECT groups.name,
		       groups.created_at,
		       groups.nb_licences_sold,
		       (SELECT COUNT(users.id) FROM users WHERE users.group_id=groups.id) AS nb_users
		FROM groups
	`
	var stats []GroupStat
	if err := r.DB.SelectContext(ctx, &stats, q); err != nil {
		return nil, fmt.Errorf("group stats: %w", err)
	}
	return stats, nil
}

func (r *statsRepository) PruneDailyStats(ctx context.Context) error {
	const q = `
		DELETE FROM data_stats AS ds1 USING data_stats AS ds2
		WHERE ds1.user_id=ds2.user_id
		  AND date_trunc('day', ds1.date)=date_trunc('day', ds2.date)
		  AND ds1.date<ds2.date
	`
	if _, err := r.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("prune daily stats: %w", err)
	}
	return nil
}

func (r *statsRepository) DailyStats(ctx context.Context) ([]DailyStat, error) {
	const q = `
		SELECT user_id,
		       date_trunc('day', date) AS day,
		       nb_accounts, nb_codes,
		       nb_accounts_strong, nb_accounts_medium, nb_accounts_weak,
		       nb_accounts_with_no_password, nb_accounts_with_duplicate_password,
		       nb_accounts_red, nb_accounts_orange, nb_accounts_green
		FROM data_stats
		ORDER BY day ASC
	`
	var stats []DailyStat
	if err := r.DB.SelectContext(ctx, &stats, q); err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	return stats, nil
}
