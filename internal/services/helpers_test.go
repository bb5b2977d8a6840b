package services

import (
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// testNow is the frozen clock used across the service tests.
var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func frozenNow() time.Time { return testNow }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

// fastVerifier hashes with the minimum bcrypt cost to keep tests quick.
func fastVerifier() AccessCodeVerifier {
	return &bcryptVerifier{cost: bcrypt.MinCost}
}

// syncQueue runs submitted tasks inline so tests can assert on their
// effects without sleeping.
type syncQueue struct {
	mu    sync.Mutex
	names []string
}

func (q *syncQueue) Submit(name string, fn func() error) {
	q.mu.Lock()
	q.names = append(q.names, name)
	q.mu.Unlock()
	_ = fn()
}

func (q *syncQueue) submitted() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.names...)
}
