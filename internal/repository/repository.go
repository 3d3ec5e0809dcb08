// Package repository defines the storage contracts for events, registrations and
// attendance. Concrete implementations live in the postgres and sqlite subpackages.
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist, including
// inserts that reference a missing event.
var ErrNotFound = errors.New("not found")

// ErrConstraintViolation is returned when an insert would duplicate a
// (event, student) key.
var ErrConstraintViolation = errors.New("constraint violation")

// ErrTransient marks failures that are safe to retry as a whole unit of work:
// lock contention, serialization failures and dropped connections.
var ErrTransient = errors.New("transient store error")

// EventStore holds event records.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	List(ctx context.Context) ([]model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	// GetForUpdate is Get plus mutual exclusion on the event until the
	// enclosing transaction ends. Outside a transaction it behaves like Get.
	GetForUpdate(ctx context.Context, id string) (*model.Event, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// RegistrationLedger records at most one registration per (event, student).
type RegistrationLedger interface {
	Count(ctx context.Context, eventID string) (int, error)
	Exists(ctx context.Context, eventID, email string) (bool, error)
	// Insert assigns ID and RegisteredAt when they are zero.
	Insert(ctx context.Context, r *model.Registration) (*model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

// AttendanceLedger records at most one check-in per (event, student).
type AttendanceLedger interface {
	Exists(ctx context.Context, eventID, email string) (bool, error)
	// Insert assigns ID and CheckedInAt when they are zero. A duplicate key
	// returns ErrConstraintViolation and leaves the transaction usable.
	Insert(ctx context.Context, a *model.Attendance) (*model.Attendance, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error)
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

// Ledgers groups the stores bound to one connection or transaction.
type Ledgers interface {
	Events() EventStore
	Registrations() RegistrationLedger
	Attendance() AttendanceLedger
}

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, tx Ledgers) error

// Store is a relational backend. The embedded Ledgers run outside any
// transaction and are meant for single-statement reads.
type Store interface {
	Ledgers
	// WithinTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back on every other exit path, including panics.
	WithinTx(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
	Close()
}
