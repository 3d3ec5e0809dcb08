package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Default throttle: DefaultMaxFailures failed logins per client within
// DefaultLockout.
const (
	DefaultMaxFailures = 5
	DefaultLockout     = 15 * time.Minute
)

// Service throttles logins per client key in front of a CredentialStore.
type Service struct {
	store       CredentialStore
	failures    *gocache.Cache
	maxFailures int
	lockout     time.Duration
}

// NewService wraps store with the default throttle of 5 failures per 15
// minutes.
func NewService(store CredentialStore) *Service {
	return NewServiceWithLimits(store, DefaultMaxFailures, DefaultLockout)
}

// NewServiceWithLimits wraps store with a throttle of maxFailures failed
// attempts per client within lockout.
func NewServiceWithLimits(store CredentialStore, maxFailures int, lockout time.Duration) *Service {
	return &Service{
		store:       store,
		failures:    gocache.New(lockout, 2*lockout),
		maxFailures: maxFailures,
		lockout:     lockout,
	}
}

// Login verifies password for the client identified by key. Once key has
// failed maxFailures times inside the window every attempt returns
// ErrTooManyAttempts until the window expires.
func (s *Service) Login(ctx context.Context, key, password string) error {
	if !s.reserve(key) {
		slog.Warn("auth_event", "event", "login_throttled", "client", key)
		return ErrTooManyAttempts
	}

	err := s.store.Verify(ctx, password)
	switch {
	case err == nil:
		s.failures.Delete(key)
		slog.Info("auth_event", "event", "login_ok", "client", key)
	case errors.Is(err, ErrInvalidPassword):
		slog.Warn("auth_event", "event", "login_failed", "client", key)
	default:
		s.release(key)
	}
	return err
}

// ChangePassword rotates the admin password. A wrong old password counts as
// a failed login for key.
func (s *Service) ChangePassword(ctx context.Context, key, oldPassword, newPassword string) error {
	if !s.reserve(key) {
		return ErrTooManyAttempts
	}

	err := s.store.Change(ctx, oldPassword, newPassword)
	switch {
	case err == nil:
		s.failures.Delete(key)
		slog.Info("auth_event", "event", "password_changed", "client", key)
	case errors.Is(err, ErrInvalidPassword):
	default:
		s.release(key)
	}
	return err
}

// reserve counts an attempt for key before the password is checked and
// reports whether it is within the limit. Add and IncrementInt are each
// atomic, so concurrent attempts always see distinct counts.
func (s *Service) reserve(key string) bool {
	for {
		if s.failures.Add(key, 1, s.lockout) == nil {
			return 1 <= s.maxFailures
		}
		if n, err := s.failures.IncrementInt(key, 1); err == nil {
			return n <= s.maxFailures
		}
		// The entry expired between Add and IncrementInt.
	}
}

// release gives back an attempt that did not test the password.
func (s *Service) release(key string) {
	_, _ = s.failures.DecrementInt(key, 1)
}
