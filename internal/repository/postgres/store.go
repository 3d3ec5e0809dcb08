// Package postgres implements the repository contracts on PostgreSQL using pgx
// directly (no ORM).
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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

// Store is a repository.Store backed by a pgx connection pool.
type Store struct {
	ledgers
	pool *pgxpool.Pool
}

// NewStore wraps an already connected pool. The store owns the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{ledgers: newLedgers(pool), pool: pool}
}

// WithinTx runs fn in a READ COMMITTED transaction.
//
// Capacity checks rely on EventRepository.GetForUpdate: SELECT ... FOR UPDATE
// blocks competing registrations for the same event until this transaction
// ends, and because every statement under READ COMMITTED takes a fresh
// snapshot, the COUNT that follows the lock sees every registration committed
// by the previous lock holder.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(ctx, newLedgers(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return classifyCommit(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Ping verifies the pool can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}

// SQLSTATE codes mapped onto the repository error taxonomy.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeAdminShutdown        = "57P01"
)

// classify maps driver errors onto repository sentinels while keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w", repository.ErrConstraintViolation, err)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeAdminShutdown:
			return fmt.Errorf("%w: %w", repository.ErrTransient, err)
		}
		return err
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", repository.ErrTransient, err)
	}
	return err
}

// classifyCommit is classify for COMMIT. Only a server-reported failure
// means the transaction did not commit; a timeout or broken connection while
// waiting for the reply leaves the outcome unknown, so it is never retried.
func classifyCommit(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classify(err)
	}
	return err
}
