package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/campus-events/internal/auth"
)

func newStore(t *testing.T) *auth.MemoryStore {
	t.Helper()
	store, err := auth.NewMemoryStore("admin123", bcrypt.MinCost)
	require.NoError(t, err)
	return store
}

func TestMemoryStore_Verify(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Verify(ctx, "admin123"))
	assert.ErrorIs(t, store.Verify(ctx, "admin124"), auth.ErrInvalidPassword)
	assert.ErrorIs(t, store.Verify(ctx, ""), auth.ErrPasswordRequired)
}

func TestMemoryStore_Change(t *testing.T) {
	tests := []struct {
		description string
		old, new    string
		want        error
	}{
		{"missing new", "admin123", "", auth.ErrPasswordRequired},
		{"too short", "admin123", "short", auth.ErrWeakPassword},
		{"unchanged", "admin123", "admin123", auth.ErrSamePassword},
		{"wrong old", "nope-nope", "brand-new-pass", auth.ErrInvalidPassword},
	}
	for _, test := range tests {
		store := newStore(t)
		err := store.Change(context.Background(), test.old, test.new)
		assert.ErrorIsf(t, err, test.want, test.description)
		assert.NoErrorf(t, store.Verify(context.Background(), "admin123"), "%s: password unchanged", test.description)
	}

	store := newStore(t)
	require.NoError(t, store.Change(context.Background(), "admin123", "brand-new-pass"))
	assert.ErrorIs(t, store.Verify(context.Background(), "admin123"), auth.ErrInvalidPassword)
	assert.NoError(t, store.Verify(context.Background(), "brand-new-pass"))
}

func TestNewMemoryStore_RequiresSeed(t *testing.T) {
	_, err := auth.NewMemoryStore("", bcrypt.MinCost)
	assert.ErrorIs(t, err, auth.ErrPasswordRequired)
}

func TestService_ThrottlesPerClient(t *testing.T) {
	svc := auth.NewServiceWithLimits(newStore(t), 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, svc.Login(ctx, "10.0.0.1", "wrong"), auth.ErrInvalidPassword)
	}
	assert.ErrorIs(t, svc.Login(ctx, "10.0.0.1", "admin123"), auth.ErrTooManyAttempts,
		"the correct password is refused once the client is throttled")
	assert.NoError(t, svc.Login(ctx, "10.0.0.2", "admin123"), "other clients are unaffected")
}

func TestService_SuccessResetsFailures(t *testing.T) {
	svc := auth.NewServiceWithLimits(newStore(t), 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, svc.Login(ctx, "c", "wrong"), auth.ErrInvalidPassword)
	}
	require.NoError(t, svc.Login(ctx, "c", "admin123"))
	for i := 0; i < 2; i++ {
		require.ErrorIs(t, svc.Login(ctx, "c", "wrong"), auth.ErrInvalidPassword)
	}
	assert.NoError(t, svc.Login(ctx, "c", "admin123"))
}

func TestService_WindowExpires(t *testing.T) {
	svc := auth.NewServiceWithLimits(newStore(t), 1, 50*time.Millisecond)
	ctx := context.Background()

	require.ErrorIs(t, svc.Login(ctx, "c", "wrong"), auth.ErrInvalidPassword)
	require.ErrorIs(t, svc.Login(ctx, "c", "admin123"), auth.ErrTooManyAttempts)

	time.Sleep(80 * time.Millisecond)
	assert.NoError(t, svc.Login(ctx, "c", "admin123"))
}

func TestService_ChangePassword(t *testing.T) {
	svc := auth.NewService(newStore(t))
	ctx := context.Background()

	require.ErrorIs(t, svc.ChangePassword(ctx, "c", "wrong", "brand-new-pass"), auth.ErrInvalidPassword)
	require.NoError(t, svc.ChangePassword(ctx, "c", "admin123", "brand-new-pass"))
	assert.NoError(t, svc.Login(ctx, "c", "brand-new-pass"))
}

func TestService_ConcurrentFailuresNeverExceedLimit(t *testing.T) {
	const limit, attempts = 5, 20
	svc := auth.NewServiceWithLimits(newStore(t), limit, time.Minute)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = svc.Login(context.Background(), "10.0.0.9", "wrong")
		}(i)
	}
	close(start)
	wg.Wait()

	var checked, throttled int
	for _, err := range errs {
		switch {
		case errors.Is(err, auth.ErrInvalidPassword):
			checked++
		case errors.Is(err, auth.ErrTooManyAttempts):
			throttled++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, limit, checked, "only limit attempts reach the password check")
	assert.Equal(t, attempts-limit, throttled)
}

func TestService_EmptyPasswordDoesNotCount(t *testing.T) {
	svc := auth.NewServiceWithLimits(newStore(t), 1, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, svc.Login(ctx, "c", ""), auth.ErrPasswordRequired)
	}
	assert.NoError(t, svc.Login(ctx, "c", "admin123"))
}
