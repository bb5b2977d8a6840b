package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AccessCodeVerifier derives and checks the salted one-way hash of a
// device access code. The comparison is timing-safe by construction.
type AccessCodeVerifier interface {
	Hash(code string) (string, error)
	Verify(code, hash string) bool
}

type bcryptVerifier struct {
	cost int
}

func NewAccessCodeVerifier() AccessCodeVerifier {
	return &bcryptVerifier{cost: bcrypt.DefaultCost}
}

func (v *bcryptVerifier) Hash(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), v.cost)
	if err != nil {
		return "", fmt.Errorf("hash access code: %w", err)
	}
	return string(h), nil
}

func (v *bcryptVerifier) Verify(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
