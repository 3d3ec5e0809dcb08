// Package repotest is a contract test suite shared by every repository.Store
// implementation.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/testutil"
)

// Run executes the suite. newStore must return a migrated store; tests only
// create fresh events so a shared database is fine.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("EventCreateGetList", func(t *testing.T) { testEventCreateGetList(t, newStore(t)) })
	t.Run("EventNotFound", func(t *testing.T) { testEventNotFound(t, newStore(t)) })
	t.Run("RegistrationInsertCountExists", func(t *testing.T) { testRegistrationInsert(t, newStore(t)) })
	t.Run("RegistrationDuplicate", func(t *testing.T) { testRegistrationDuplicate(t, newStore(t)) })
	t.Run("RegistrationUnknownEvent", func(t *testing.T) { testRegistrationUnknownEvent(t, newStore(t)) })
	t.Run("RegistrationOrdering", func(t *testing.T) { testRegistrationOrdering(t, newStore(t)) })
	t.Run("AttendanceInsertAndDuplicate", func(t *testing.T) { testAttendance(t, newStore(t)) })
	t.Run("AttendanceOrdering", func(t *testing.T) { testAttendanceOrdering(t, newStore(t)) })
	t.Run("TxRollbackOnError", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("TxUsableAfterDuplicateAttendance", func(t *testing.T) { testTxAfterDuplicate(t, newStore(t)) })
	t.Run("DeleteByEvent", func(t *testing.T) { testDeleteByEvent(t, newStore(t)) })
}

func uniqueEmail(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8] + "@campus.edu"
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func testEventCreateGetList(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 25)
	require.NotEmpty(t, e.ID)
	require.False(t, e.CreatedAt.IsZero())

	got, err := store.Events().Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, e.Title, got.Title)
	require.Equal(t, e.Venue, got.Venue)
	require.Equal(t, 25, got.RegLimit)
	require.Equal(t, 0, got.RegisteredCount)
	require.WithinDuration(t, e.EventDateTime, got.EventDateTime, time.Millisecond)

	_, err = store.Registrations().Insert(ctx, &model.Registration{
		EventID: e.ID, StudentName: "Asha", StudentEmail: uniqueEmail("asha"),
	})
	require.NoError(t, err)

	events, err := store.Events().List(ctx)
	require.NoError(t, err)
	var found *model.Event
	for i := range events {
		if events[i].ID == e.ID {
			found = &events[i]
		}
	}
	require.NotNil(t, found, "created event should be listed")
	require.Equal(t, 1, found.RegisteredCount)
}

func testEventNotFound(t *testing.T, store repository.Store) {
	ctx := context.Background()
	_, err := store.Events().Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, repository.ErrNotFound)

	n, err := store.Events().Delete(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Zero(t, n)
}

func testRegistrationInsert(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 0)
	email := uniqueEmail("ravi")

	reg, err := store.Registrations().Insert(ctx, &model.Registration{
		EventID:      e.ID,
		StudentName:  "Ravi",
		StudentEmail: email,
		Department:   strPtr("CSE"),
		Year:         intPtr(3),
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.ID)
	require.False(t, reg.RegisteredAt.IsZero())

	n, err := store.Registrations().Count(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	ok, err := store.Registrations().Exists(ctx, e.ID, email)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Registrations().Exists(ctx, e.ID, uniqueEmail("nobody"))
	require.NoError(t, err)
	require.False(t, ok)

	regs, err := store.Registrations().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	require.Equal(t, "CSE", *regs[0].Department)
	require.Equal(t, 3, *regs[0].Year)
}

func testRegistrationDuplicate(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 0)
	email := uniqueEmail("dup")

	_, err := store.Registrations().Insert(ctx, &model.Registration{EventID: e.ID, StudentName: "A", StudentEmail: email})
	require.NoError(t, err)
	_, err = store.Registrations().Insert(ctx, &model.Registration{EventID: e.ID, StudentName: "A again", StudentEmail: email})
	require.ErrorIs(t, err, repository.ErrConstraintViolation)

	n, err := store.Registrations().Count(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func testRegistrationUnknownEvent(t *testing.T, store repository.Store) {
	_, err := store.Registrations().Insert(context.Background(), &model.Registration{
		EventID: uuid.NewString(), StudentName: "Ghost", StudentEmail: uniqueEmail("ghost"),
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testRegistrationOrdering(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 0)
	base := time.Now().UTC().Truncate(time.Millisecond)

	// Inserted out of time order, plus a tie on the last two.
	inputs := []struct {
		name string
		at   time.Time
	}{
		{"second", base.Add(2 * time.Second)},
		{"first", base.Add(1 * time.Second)},
		{"third", base.Add(3 * time.Second)},
		{"fourth", base.Add(3 * time.Second)},
	}
	for _, in := range inputs {
		_, err := store.Registrations().Insert(ctx, &model.Registration{
			EventID: e.ID, StudentName: in.name, StudentEmail: uniqueEmail(in.name), RegisteredAt: in.at,
		})
		require.NoError(t, err)
	}

	regs, err := store.Registrations().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	var names []string
	for _, r := range regs {
		names = append(names, r.StudentName)
	}
	require.Equal(t, []string{"first", "second", "third", "fourth"}, names)
}

func testAttendanceOrdering(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 0)
	base := time.Now().UTC().Truncate(time.Millisecond)

	inputs := []struct {
		prefix string
		at     time.Time
	}{
		{"late", base.Add(5 * time.Minute)},
		{"early", base.Add(1 * time.Minute)},
		{"tie-a", base.Add(3 * time.Minute)},
		{"tie-b", base.Add(3 * time.Minute)},
	}
	emails := make(map[string]string, len(inputs))
	for _, in := range inputs {
		emails[in.prefix] = uniqueEmail(in.prefix)
		_, err := store.Attendance().Insert(ctx, &model.Attendance{
			EventID: e.ID, StudentEmail: emails[in.prefix], CheckedInAt: in.at,
		})
		require.NoError(t, err)
	}

	list, err := store.Attendance().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	var got []string
	for _, a := range list {
		got = append(got, a.StudentEmail)
	}
	require.Equal(t, []string{emails["early"], emails["tie-a"], emails["tie-b"], emails["late"]}, got)
}

func testAttendance(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 0)
	email := uniqueEmail("kiran")

	ok, err := store.Attendance().Exists(ctx, e.ID, email)
	require.NoError(t, err)
	require.False(t, ok)

	a, err := store.Attendance().Insert(ctx, &model.Attendance{EventID: e.ID, StudentEmail: email})
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)

	_, err = store.Attendance().Insert(ctx, &model.Attendance{EventID: e.ID, StudentEmail: email})
	require.ErrorIs(t, err, repository.ErrConstraintViolation)

	_, err = store.Attendance().Insert(ctx, &model.Attendance{EventID: uuid.NewString(), StudentEmail: email})
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := store.Attendance().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, email, list[0].StudentEmail)
}

func testTxRollback(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 0)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Ledgers) error {
		if _, err := tx.Registrations().Insert(ctx, &model.Registration{
			EventID: e.ID, StudentName: "Temp", StudentEmail: uniqueEmail("temp"),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := store.Registrations().Count(ctx, e.ID)
	require.NoError(t, err)
	require.Zero(t, n, "rolled back insert must not be visible")
}

func testTxAfterDuplicate(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 0)
	email := uniqueEmail("twice")
	other := uniqueEmail("other")

	_, err := store.Attendance().Insert(ctx, &model.Attendance{EventID: e.ID, StudentEmail: email})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Ledgers) error {
		_, err := tx.Attendance().Insert(ctx, &model.Attendance{EventID: e.ID, StudentEmail: email})
		require.ErrorIs(t, err, repository.ErrConstraintViolation)
		_, err = tx.Attendance().Insert(ctx, &model.Attendance{EventID: e.ID, StudentEmail: other})
		return err
	})
	require.NoError(t, err)

	list, err := store.Attendance().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func testDeleteByEvent(t *testing.T, store repository.Store) {
	ctx := context.Background()
	e := testutil.SeedEvent(t, store, 0)
	keep := testutil.SeedEvent(t, store, 0)

	for i := 0; i < 3; i++ {
		_, err := store.Registrations().Insert(ctx, &model.Registration{EventID: e.ID, StudentName: "S", StudentEmail: uniqueEmail("s")})
		require.NoError(t, err)
	}
	_, err := store.Registrations().Insert(ctx, &model.Registration{EventID: keep.ID, StudentName: "K", StudentEmail: uniqueEmail("k")})
	require.NoError(t, err)
	_, err = store.Attendance().Insert(ctx, &model.Attendance{EventID: e.ID, StudentEmail: uniqueEmail("s")})
	require.NoError(t, err)

	n, err := store.Attendance().DeleteByEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = store.Registrations().DeleteByEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	n, err = store.Events().Delete(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	left, err := store.Registrations().Count(ctx, keep.ID)
	require.NoError(t, err)
	require.Equal(t, 1, left, "other events are untouched")
}
