package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db querier
}

const selectEvent = `SELECT e.id, e.title, e.description, e.category, e.venue, e.event_datetime, e.reg_limit, e.created_at,
	(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id)
	FROM events e`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e                   model.Event
		startsAt, createdAt int64
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Venue,
		&startsAt, &e.RegLimit, &createdAt, &e.RegisteredCount); err != nil {
		return nil, err
	}
	e.EventDateTime = fromMillis(startsAt)
	e.CreatedAt = fromMillis(createdAt)
	return &e, nil
}

// Create inserts a new event, assigning a UUID and creation time when unset.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, category, venue, event_datetime, reg_limit, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Category, e.Venue, toMillis(e.EventDateTime), e.RegLimit, toMillis(e.CreatedAt),
	)
	if err != nil {
		return classify(fmt.Errorf("insert event: %w", err))
	}
	return nil
}

// List returns all events ordered by start time ascending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, selectEvent+` ORDER BY e.event_datetime ASC, e.created_at ASC`)
	if err != nil {
		return nil, classify(fmt.Errorf("list events: %w", err))
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("list events: %w", err))
	}
	return events, nil
}

// Get returns a single event with its current registration count, or ErrNotFound.
func (r *EventRepository) Get(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, selectEvent+` WHERE e.id = ?`, id))
	if err != nil {
		return nil, classify(fmt.Errorf("get event: %w", err))
	}
	return e, nil
}

// GetForUpdate reads the event inside the caller's transaction. SQLite has no
// row locks; the write lock taken by BEGIN IMMEDIATE already excludes every
// other writer until the transaction ends.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	e, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e.RegisteredCount = 0
	return e, nil
}

// Delete removes the event row and returns the number of rows affected.
func (r *EventRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return 0, classify(fmt.Errorf("delete event: %w", err))
	}
	return res.RowsAffected()
}
