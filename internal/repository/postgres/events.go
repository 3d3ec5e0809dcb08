package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db querier
}

const eventColumns = `e.id, e.title, e.description, e.category, e.venue, e.event_datetime, e.reg_limit, e.created_at`

const registeredCount = `(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id)`

func scanEvent(row pgx.Row, withCount bool) (*model.Event, error) {
	var e model.Event
	dest := []any{&e.ID, &e.Title, &e.Description, &e.Category, &e.Venue, &e.EventDateTime, &e.RegLimit, &e.CreatedAt}
	if withCount {
		dest = append(dest, &e.RegisteredCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
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

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, category, venue, event_datetime, reg_limit, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Title, e.Description, e.Category, e.Venue, e.EventDateTime, e.RegLimit, e.CreatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("insert event: %w", err))
	}
	return nil
}

// List returns all events ordered by start time ascending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`, `+registeredCount+`
		 FROM events e
		 ORDER BY e.event_datetime ASC, e.created_at ASC`,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list events: %w", err))
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows, true)
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
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+`, `+registeredCount+`
		 FROM events e WHERE e.id = $1`,
		id,
	), true)
	if err != nil {
		return nil, classify(fmt.Errorf("get event: %w", err))
	}
	return e, nil
}

// GetForUpdate acquires an exclusive row-level lock on the event.
//
// Any other transaction issuing the same SELECT ... FOR UPDATE on this row
// blocks until we COMMIT or ROLLBACK. RegisteredCount is left at zero: this
// statement's snapshot predates the lock wait, so the count must be read by a
// separate statement once the lock is held.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 WHERE e.id = $1
		 FOR UPDATE`,
		id,
	), false)
	if err != nil {
		return nil, classify(fmt.Errorf("lock event row: %w", err))
	}
	return e, nil
}

// Delete removes the event row and returns the number of rows affected.
func (r *EventRepository) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, classify(fmt.Errorf("delete event: %w", err))
	}
	return tag.RowsAffected(), nil
}
