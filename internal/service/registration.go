package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// RegistrationService enforces per-event capacity on registration.
type RegistrationService struct {
	store repository.Store
	uow   *unitOfWork
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(store repository.Store, opts Options) *RegistrationService {
	return &RegistrationService{store: store, uow: newUnitOfWork(store, opts)}
}

// Register validates the request, then checks capacity and inserts the
// registration as one unit of work.
//
// Naive read-then-write is broken: two requests for the last slot both read
// count = limit-1 and both insert. The event row is therefore locked
// (GetForUpdate) before the count is read, so competing registrations for the
// same event run strictly one after another and the loser observes the
// winner's row.
func (s *RegistrationService) Register(ctx context.Context, eventID string, req model.RegisterRequest) (*model.Registration, error) {
	reg, err := newRegistration(eventID, req)
	if err != nil {
		return nil, err
	}

	var created *model.Registration
	err = s.uow.run(ctx, "registration.register", func(ctx context.Context, tx repository.Ledgers) error {
		created = nil

		event, err := tx.Events().GetForUpdate(ctx, eventID)
		if err != nil {
			return notFoundAsEvent(err, "lock event")
		}

		exists, err := tx.Registrations().Exists(ctx, eventID, reg.StudentEmail)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			return ErrAlreadyRegistered
		}

		if !event.Unlimited() {
			if event.RegisteredCount, err = tx.Registrations().Count(ctx, eventID); err != nil {
				return fmt.Errorf("count registrations: %w", err)
			}
			if event.IsFull() {
				return ErrCapacityExceeded
			}
		}

		created, err = tx.Registrations().Insert(ctx, reg)
		if err != nil {
			if errors.Is(err, repository.ErrConstraintViolation) {
				return ErrAlreadyRegistered
			}
			return notFoundAsEvent(err, "insert registration")
		}
		return nil
	})
	if err != nil {
		logRegistrationFailure(eventID, reg.StudentEmail, err)
		return nil, err
	}

	slog.Info("registration_event", "event", "student_registered",
		"event_id", eventID, "registration_id", created.ID, "email", created.StudentEmail)
	return created, nil
}

// ListParticipants returns the registrations of an event in registration order.
func (s *RegistrationService) ListParticipants(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.store.Events().Get(ctx, eventID); err != nil {
		return nil, notFoundAsEvent(err, "get event")
	}
	regs, err := s.store.Registrations().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return regs, nil
}

func newRegistration(eventID string, req model.RegisterRequest) (*model.Registration, error) {
	name := strings.TrimSpace(req.StudentName)
	email := normalizeEmail(req.StudentEmail)
	if name == "" || email == "" {
		return nil, invalidInput("student_name and student_email are required")
	}
	if !isValidEmail(email) {
		return nil, invalidInput("student_email is not a valid email address")
	}
	if req.Year != nil && (*req.Year < 1 || *req.Year > 10) {
		return nil, invalidInput("year must be between 1 and 10")
	}
	if strings.TrimSpace(eventID) == "" {
		return nil, invalidInput("event id is required")
	}
	return &model.Registration{
		EventID:      eventID,
		StudentName:  name,
		StudentEmail: email,
		Department:   optionalString(req.Department),
		Year:         req.Year,
	}, nil
}

func logRegistrationFailure(eventID, email string, err error) {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		slog.Info("registration_event", "event", "capacity_exceeded", "event_id", eventID, "email", email)
	case errors.Is(err, ErrEventNotFound), errors.Is(err, repository.ErrConstraintViolation):
		slog.Info("registration_event", "event", "rejected", "event_id", eventID, "email", email, "reason", err.Error())
	default:
		slog.Error("registration failed", "event_id", eventID, "email", email, "error", err)
	}
}
