package models

// User is created on the first allowed pairing request for an email
// address and is never deleted by this service.
type User struct {
	ID            int64   `db:"id" json:"id"`
	Email         string  `db:"email" json:"email"`
	GroupID       int     `db:"group_id" json:"group_id"`
	EncryptedData *string `db:"encrypted_data" json:"-"`

	// Public key other users encrypt shared items against. Nil until the
	// client registers one.
	SharingPublicKey *string `db:"sharing_public_key" json:"-"`
}

// AllowedEmail is a per-group allow-list entry. Pattern is either an
// exact address or a "*@domain" wildcard.
type AllowedEmail struct {
	Pattern string `db:"pattern" json:"pattern"`
	GroupID int    `db:"group_id" json:"group_id"`
}

// ChangedEmail records an old->new address migration so clients holding
// the old address can be redirected instead of treated as revoked.
type ChangedEmail struct {
	UserID   int64  `db:"user_id" json:"user_id"`
	OldEmail string `db:"old_email" json:"old_email"`
	NewEmail string `db:"new_email" json:"new_email"`
	GroupID  int    `db:"group_id" json:"group_id"`
}
