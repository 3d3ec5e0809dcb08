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

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db querier
}

// Count returns the number of committed registrations visible to the caller.
func (r *RegistrationRepository) Count(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, classify(fmt.Errorf("count registrations: %w", err))
	}
	return n, nil
}

// Exists reports whether the student is registered for the event.
func (r *RegistrationRepository) Exists(ctx context.Context, eventID, email string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND student_email = $2)`,
		eventID, email,
	).Scan(&ok)
	if err != nil {
		return false, classify(fmt.Errorf("check registration: %w", err))
	}
	return ok, nil
}

// Insert creates the registration record. The unique (event_id, student_email)
// index turns a duplicate into ErrConstraintViolation.
func (r *RegistrationRepository) Insert(ctx context.Context, reg *model.Registration) (*model.Registration, error) {
	out := *reg
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.RegisteredAt.IsZero() {
		out.RegisteredAt = time.Now().UTC()
	}

	var id string
	err := r.db.QueryRow(ctx,
		`INSERT INTO registrations (id, event_id, student_name, student_email, department, year, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (event_id, student_email) DO NOTHING
		 RETURNING id`,
		out.ID, out.EventID, out.StudentName, out.StudentEmail, out.Department, out.Year, out.RegisteredAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("insert registration: %w", repository.ErrConstraintViolation)
		}
		return nil, classify(fmt.Errorf("insert registration: %w", err))
	}
	return &out, nil
}

// ListByEvent returns all registrations for an event in registration order.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, student_name, student_email, department, year, registered_at
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY registered_at ASC, seq ASC`,
		eventID,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list registrations: %w", err))
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.StudentName, &reg.StudentEmail,
			&reg.Department, &reg.Year, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("list registrations: %w", err))
	}
	return regs, nil
}

// DeleteByEvent removes every registration of the event.
func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, classify(fmt.Errorf("delete registrations: %w", err))
	}
	return tag.RowsAffected(), nil
}
