package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendance WHERE event_id = $1 AND student_email = $2)`,
		eventID, email,
	).Scan(&ok)
	if err != nil {
		return false, classify(fmt.Errorf("check attendance: %w", err))
	}
	return ok, nil
}

// Insert records a check-in. ON CONFLICT DO NOTHING keeps the transaction
// usable when a concurrent check-in for the same student won the race.
func (r *AttendanceRepository) Insert(ctx context.Context, a *model.Attendance) (*model.Attendance, error) {
	out := *a
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CheckedInAt.IsZero() {
		out.CheckedInAt = time.Now().UTC()
	}

	var id string
	err := r.db.QueryRow(ctx,
		`INSERT INTO attendance (id, event_id, student_email, checked_in_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (event_id, student_email) DO NOTHING
		 RETURNING id`,
		out.ID, out.EventID, out.StudentEmail, out.CheckedInAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("insert attendance: %w", repository.ErrConstraintViolation)
		}
		return nil, classify(fmt.Errorf("insert attendance: %w", err))
	}
	return &out, nil
}

// ListByEvent returns the check-ins of an event ordered by check-in time.
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, student_email, checked_in_at
		 FROM attendance
		 WHERE event_id = $1
		 ORDER BY checked_in_at ASC, seq ASC`,
		eventID,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list attendance: %w", err))
	}
	defer rows.Close()

	var list []model.Attendance
	for rows.Next() {
		var a model.Attendance
		if err := rows.Scan(&a.ID, &a.EventID, &a.StudentEmail, &a.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("list attendance: %w", err))
	}
	return list, nil
}

// DeleteByEvent removes every check-in of the event.
func (r *AttendanceRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM attendance WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, classify(fmt.Errorf("delete attendance: %w", err))
	}
	return tag.RowsAffected(), nil
}
