package services

import (
	"errors"
	"fmt"
)

// Named protocol errors. The string values of the Code* errors are part
// of the wire contract and must not change.
var (
	// Generic authentication failure. Wrong email, device, code or
	// challenge all collapse to this one error so callers cannot probe
	// which factor was wrong.
	ErrUnauthorized = errors.New("unauthorized")

	ErrEmailNotAllowed = errors.New("email_address_not_allowed")
	ErrRevoked         = errors.New("revoked")
	ErrNoResetRequest  = errors.New("no_request")
	ErrBadResetToken   = errors.New("bad_token")
	ErrResetExpired    = errors.New("expired")

	// The caller proved possession of the pairing request but the code
	// has expired; safe to reveal.
	ErrPairingCodeExpired = errors.New("pairing code expired")

	// Removing this membership would leave the shared item with no
	// manager.
	ErrLastManager = errors.New("last manager cannot stop receiving a shared item")
)

// OtherStatusError reports a non-authorized, non-revoked lifecycle
// state so the client can resume pairing.
type OtherStatusError struct {
	Status string
}

func (e *OtherStatusError) Error() string {
	return fmt.Sprintf("other_authorization_status: %s", e.Status)
}

// EmailChangedError redirects a client holding a migrated address.
type EmailChangedError struct {
	NewEmail string
}

func (e *EmailChangedError) Error() string {
	return fmt.Sprintf("email address changed to %s", e.NewEmail)
}

// ChallengeRequiredError carries a freshly issued device challenge back
// to a caller that has not authenticated yet. It is the expected first
// half of the challenge/response round trip, not a terminal failure.
type ChallengeRequiredError struct {
	DeviceChallenge string
}

func (e *ChallengeRequiredError) Error() string {
	return "device challenge required"
}

// EmptyVaultError reports that the account holds no vault blob yet.
// The device challenge still travels with it so the client can
// bootstrap.
type EmptyVaultError struct {
	DeviceChallenge string
}

func (e *EmptyVaultError) Error() string {
	return "empty_data"
}
