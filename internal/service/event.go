// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// EventService orchestrates event creation, lookup and deletion.
type EventService struct {
	store repository.Store
	uow   *unitOfWork
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.Store, opts Options) *EventService {
	return &EventService{store: store, uow: newUnitOfWork(store, opts)}
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	title := strings.TrimSpace(req.Title)
	venue := strings.TrimSpace(req.Venue)
	if title == "" || venue == "" || strings.TrimSpace(req.EventDateTime) == "" {
		return nil, invalidInput("title, event_datetime, and venue are required")
	}
	startsAt, err := parseEventDateTime(req.EventDateTime)
	if err != nil {
		return nil, invalidInput("event_datetime must be RFC 3339 or YYYY-MM-DDTHH:MM")
	}
	if req.RegLimit < 0 {
		return nil, invalidInput("reg_limit cannot be negative")
	}
	if req.RegLimit > maxRegLimit {
		return nil, invalidInput("reg_limit cannot exceed 100,000")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "Other"
	}

	event := &model.Event{
		Title:         title,
		Description:   strings.TrimSpace(req.Description),
		Category:      category,
		Venue:         venue,
		EventDateTime: startsAt,
		RegLimit:      req.RegLimit,
	}
	if err := s.store.Events().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	slog.Info("event_event", "event", "event_created", "event_id", event.ID, "reg_limit", event.RegLimit)
	return event, nil
}

// ListEvents returns all events with their registration counts.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.store.Events().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidInput("event id is required")
	}
	event, err := s.store.Events().Get(ctx, id)
	if err != nil {
		return nil, notFoundAsEvent(err, "get event")
	}
	return event, nil
}

// DeleteEvent removes an event together with its registrations and
// attendance in one unit of work. A missing event is ErrEventNotFound and
// nothing is written.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	var regs, attended int64
	err := s.uow.run(ctx, "event.delete", func(ctx context.Context, tx repository.Ledgers) error {
		// Locking first keeps registrations from landing between the
		// ledger deletes and the event delete.
		if _, err := tx.Events().GetForUpdate(ctx, id); err != nil {
			return notFoundAsEvent(err, "lock event")
		}

		var err error
		if attended, err = tx.Attendance().DeleteByEvent(ctx, id); err != nil {
			return fmt.Errorf("delete attendance: %w", err)
		}
		if regs, err = tx.Registrations().DeleteByEvent(ctx, id); err != nil {
			return fmt.Errorf("delete registrations: %w", err)
		}
		n, err := tx.Events().Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if n == 0 {
			return ErrEventNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("event_event", "event", "event_deleted", "event_id", id,
		"registrations_deleted", regs, "attendance_deleted", attended)
	return nil
}
