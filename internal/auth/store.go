// Package auth guards the admin surface with a single shared password.
package auth

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordRequired is returned when a password field is empty.
	ErrPasswordRequired = errors.New("password required")
	// ErrInvalidPassword is returned when the password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrWeakPassword is returned when a new password is shorter than
	// MinPasswordLength.
	ErrWeakPassword = errors.New("new password must be at least 8 characters")
	// ErrSamePassword is returned when the new password equals the old one.
	ErrSamePassword = errors.New("new password must differ from the current one")
	// ErrTooManyAttempts is returned while a client is throttled.
	ErrTooManyAttempts = errors.New("too many failed login attempts, try again later")
)

// MinPasswordLength applies to passwords set through Change.
const MinPasswordLength = 8

// CredentialStore verifies and rotates the admin password.
type CredentialStore interface {
	Verify(ctx context.Context, password string) error
	Change(ctx context.Context, oldPassword, newPassword string) error
}

// MemoryStore keeps the bcrypt hash of the admin password in memory. A
// restart resets it to the configured seed.
type MemoryStore struct {
	mu   sync.RWMutex
	hash []byte
	cost int
}

// NewMemoryStore hashes seed with the given bcrypt cost. A cost below
// bcrypt.MinCost uses bcrypt.DefaultCost.
func NewMemoryStore(seed string, cost int) (*MemoryStore, error) {
	if seed == "" {
		return nil, ErrPasswordRequired
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(seed), cost)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{hash: hash, cost: cost}, nil
}

// Verify checks password against the stored hash.
func (s *MemoryStore) Verify(_ context.Context, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	s.mu.RLock()
	hash := s.hash
	s.mu.RUnlock()
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Change replaces the password after checking the current one.
func (s *MemoryStore) Change(_ context.Context, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bcrypt.CompareHashAndPassword(s.hash, []byte(oldPassword)) != nil {
		return ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	s.hash = hash
	return nil
}
