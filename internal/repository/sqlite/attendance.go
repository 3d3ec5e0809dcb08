package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// AttendanceRepository handles persistence for check-ins.
type AttendanceRepository struct {
	db querier
}

// Exists reports whether the student has already checked in.
func (r *AttendanceRepository) Exists(ctx context.Context, eventID, email string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendance WHERE event_id = ? AND student_email = ?)`,
		eventID, email,
	).Scan(&ok)
	if err != nil {
		return false, classify(fmt.Errorf("check attendance: %w", err))
	}
	return ok, nil
}

// Insert records a check-in; a duplicate (event, email) pair returns
// ErrConstraintViolation without failing the transaction.
func (r *AttendanceRepository) Insert(ctx context.Context, a *model.Attendance) (*model.Attendance, error) {
	out := *a
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CheckedInAt.IsZero() {
		out.CheckedInAt = time.Now().UTC()
	}

	var id string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO attendance (id, event_id, student_email, checked_in_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (event_id, student_email) DO NOTHING
		 RETURNING id`,
		out.ID, out.EventID, out.StudentEmail, toMillis(out.CheckedInAt),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("insert attendance: %w", repository.ErrConstraintViolation)
		}
		return nil, classify(fmt.Errorf("insert attendance: %w", err))
	}
	out.CheckedInAt = fromMillis(toMillis(out.CheckedInAt))
	return &out, nil
}

// ListByEvent returns the check-ins of an event ordered by check-in time.
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, student_email, checked_in_at
		 FROM attendance
		 WHERE event_id = ?
		 ORDER BY checked_in_at ASC, rowid ASC`,
		eventID,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list attendance: %w", err))
	}
	defer rows.Close()

	var list []model.Attendance
	for rows.Next() {
		var (
			a           model.Attendance
			checkedInAt int64
		)
		if err := rows.Scan(&a.ID, &a.EventID, &a.StudentEmail, &checkedInAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		a.CheckedInAt = fromMillis(checkedInAt)
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("list attendance: %w", err))
	}
	return list, nil
}

// DeleteByEvent removes every check-in of the event.
func (r *AttendanceRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE event_id = ?`, eventID)
	if err != nil {
		return 0, classify(fmt.Errorf("delete attendance: %w", err))
	}
	return res.RowsAffected()
}
