package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
	"github.com/Shivanand-hulikatti/campus-events/internal/testutil"
)

var testOptions = service.Options{TxTimeout: testutil.DefaultTxTimeout, MaxAttempts: 5}

// backends lists every store the concurrency tests run against. PostgreSQL
// is skipped unless testutil.PostgresURLEnv is set.
var backends = []struct {
	name string
	open func(t *testing.T) repository.Store
}{
	{"sqlite", func(t *testing.T) repository.Store { return testutil.NewSQLiteStore(t) }},
	{"postgres", func(t *testing.T) repository.Store { return testutil.NewPostgresStore(t) }},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, store repository.Store)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) { fn(t, b.open(t)) })
	}
}

// hookStore wraps a real store to count transactions, fail attempts before
// they start, or swap the ledgers a unit of work sees.
type hookStore struct {
	repository.Store
	txCalls  atomic.Int32
	beforeTx func(call int32) error
	wrapTx   func(repository.Ledgers) repository.Ledgers
}

func (s *hookStore) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	n := s.txCalls.Add(1)
	if s.beforeTx != nil {
		if err := s.beforeTx(n); err != nil {
			return err
		}
	}
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Ledgers) error {
		if s.wrapTx != nil {
			tx = s.wrapTx(tx)
		}
		return fn(ctx, tx)
	})
}

var errInjected = errors.New("injected failure")

// failAfterInsert lets the registration insert reach the database and then
// fails, as if the process died before commit.
type failAfterInsert struct {
	repository.Ledgers
}

func (f failAfterInsert) Registrations() repository.RegistrationLedger {
	return failingRegistrations{f.Ledgers.Registrations()}
}

type failingRegistrations struct {
	repository.RegistrationLedger
}

func (f failingRegistrations) Insert(ctx context.Context, r *model.Registration) (*model.Registration, error) {
	if _, err := f.RegistrationLedger.Insert(ctx, r); err != nil {
		return nil, err
	}
	return nil, errInjected
}

// countingWrites counts every delete statement issued through the ledgers.
type countingWrites struct {
	repository.Ledgers
	n *atomic.Int32
}

func (c countingWrites) Events() repository.EventStore {
	return countingEvents{c.Ledgers.Events(), c.n}
}

func (c countingWrites) Registrations() repository.RegistrationLedger {
	return countingRegistrations{c.Ledgers.Registrations(), c.n}
}

func (c countingWrites) Attendance() repository.AttendanceLedger {
	return countingAttendance{c.Ledgers.Attendance(), c.n}
}

type countingEvents struct {
	repository.EventStore
	n *atomic.Int32
}

func (c countingEvents) Delete(ctx context.Context, id string) (int64, error) {
	c.n.Add(1)
	return c.EventStore.Delete(ctx, id)
}

type countingRegistrations struct {
	repository.RegistrationLedger
	n *atomic.Int32
}

func (c countingRegistrations) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	c.n.Add(1)
	return c.RegistrationLedger.DeleteByEvent(ctx, eventID)
}

type countingAttendance struct {
	repository.AttendanceLedger
	n *atomic.Int32
}

func (c countingAttendance) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	c.n.Add(1)
	return c.AttendanceLedger.DeleteByEvent(ctx, eventID)
}

func registerRequest(name, email string) model.RegisterRequest {
	return model.RegisterRequest{StudentName: name, StudentEmail: email}
}
