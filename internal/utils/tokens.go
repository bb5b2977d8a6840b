package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewPairingCode returns a short, URL-safe one-time code meant to be
// relayed by a human from the pairing email back into the app.
func NewPairingCode() string {
	return uuid.New().String()[:8]
}

// NewResetToken returns a hex-encoded random token. nBytes defaults to
// 32 (256 bits).
func NewResetToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewChallengeNonce returns a base64-encoded random nonce of nBytes.
func NewChallengeNonce(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
