package models

// SharedAccountUser grants a user visibility over a shared vault item.
// A shared item must always retain at least one manager.
type SharedAccountUser struct {
	SharedAccountID int64 `db:"shared_account_id" json:"shared_account_id"`
	UserID          int64 `db:"user_id" json:"user_id"`
	GroupID         int   `db:"group_id" json:"group_id"`
	IsManager       bool  `db:"is_manager" json:"is_manager"`
}

// SharedContact is one recipient of a shared item as returned to
// clients.
type SharedContact struct {
	ID        int64  `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	IsManager bool   `db:"is_manager" json:"is_manager"`
}
