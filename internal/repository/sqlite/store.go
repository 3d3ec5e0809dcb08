// Package sqlite implements the repository contracts on an embedded SQLite
// database (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ledgers struct {
	events        *EventRepository
	registrations *RegistrationRepository
	attendance    *AttendanceRepository
}

func newLedgers(db querier) ledgers {
	return ledgers{
		events:        &EventRepository{db: db},
		registrations: &RegistrationRepository{db: db},
		attendance:    &AttendanceRepository{db: db},
	}
}

func (l ledgers) Events() repository.EventStore               { return l.events }
func (l ledgers) Registrations() repository.RegistrationLedger { return l.registrations }
func (l ledgers) Attendance() repository.AttendanceLedger      { return l.attendance }

// Store is a repository.Store backed by a SQLite file.
type Store struct {
	ledgers
	db *sql.DB
}

// DefaultBusyTimeout applies when Open is given no transaction timeout.
const DefaultBusyTimeout = 5 * time.Second

// BusyTimeout is how long BEGIN IMMEDIATE waits for the write lock. The
// driver does not watch the context while it waits, so the wait must end
// well inside the transaction's own deadline: half of txTimeout.
func BusyTimeout(txTimeout time.Duration) time.Duration {
	if txTimeout <= 0 {
		return DefaultBusyTimeout
	}
	return max(txTimeout/2, time.Millisecond)
}

// DSN returns the connection string used by Open. Every transaction starts
// with BEGIN IMMEDIATE, which takes the database write lock up front; that
// lock is what serialises capacity checks.
func DSN(path string, busyTimeout time.Duration) string {
	return filepath.Clean(path) +
		fmt.Sprintf("?_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()) +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_txlock=immediate"
}

// Open opens the database file. The schema is expected to be migrated
// already (see database.Migrate). txTimeout bounds each unit of work and
// sizes the lock wait, see BusyTimeout.
func Open(path string, txTimeout time.Duration) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", DSN(path, BusyTimeout(txTimeout)))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{ledgers: newLedgers(db), db: db}, nil
}

// WithinTx runs fn in an immediate transaction.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, newLedgers(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// classify maps SQLite result codes onto repository sentinels while keeping
// the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch code {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %w", repository.ErrConstraintViolation, err)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
		}
		switch code & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", repository.ErrTransient, err)
		}
	}
	return err
}
