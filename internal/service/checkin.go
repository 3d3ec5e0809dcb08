package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// CheckInService records attendance. Check-in is idempotent: repeating it
// for the same student reports AlreadyCheckedIn instead of failing.
type CheckInService struct {
	store repository.Store
	uow   *unitOfWork
}

// NewCheckInService constructs a CheckInService.
func NewCheckInService(store repository.Store, opts Options) *CheckInService {
	return &CheckInService{store: store, uow: newUnitOfWork(store, opts)}
}

// CheckIn marks the student present at the event.
// PRE: the event exists
// POST: exactly one attendance row exists for (event, student)
//
// A student without a registration may still check in; the result carries
// Registered=false and a warning is logged.
func (s *CheckInService) CheckIn(ctx context.Context, eventID string, req model.CheckInRequest) (*model.CheckInResult, error) {
	email := normalizeEmail(req.StudentEmail)
	// Any non-empty identifier is accepted, e.g. a roll number from a QR scan.
	if email == "" {
		return nil, invalidInput("student_email is required")
	}

	var result model.CheckInResult
	err := s.uow.run(ctx, "attendance.check_in", func(ctx context.Context, tx repository.Ledgers) error {
		result = model.CheckInResult{}

		if _, err := tx.Events().Get(ctx, eventID); err != nil {
			return notFoundAsEvent(err, "get event")
		}

		registered, err := tx.Registrations().Exists(ctx, eventID, email)
		if err != nil {
			return fmt.Errorf("check registration: %w", err)
		}
		result.Registered = registered
		if !registered {
			trace.SpanFromContext(ctx).AddEvent("unregistered check-in",
				trace.WithAttributes(attribute.String("event_id", eventID)))
		}

		already, err := tx.Attendance().Exists(ctx, eventID, email)
		if err != nil {
			return fmt.Errorf("check attendance: %w", err)
		}
		if already {
			result.AlreadyCheckedIn = true
			return nil
		}

		// The existence check can race with a concurrent check-in; the
		// unique key decides, and the loser reports AlreadyCheckedIn.
		a, err := tx.Attendance().Insert(ctx, &model.Attendance{EventID: eventID, StudentEmail: email})
		if err != nil {
			if errors.Is(err, repository.ErrConstraintViolation) {
				result.AlreadyCheckedIn = true
				return nil
			}
			return notFoundAsEvent(err, "insert attendance")
		}
		result.Attendance = a
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrEventNotFound) {
			slog.Error("check-in failed", "event_id", eventID, "email", email, "error", err)
		}
		return nil, err
	}

	if !result.Registered {
		slog.Warn("unregistered check-in", "event_id", eventID, "email", email)
	}
	if result.AlreadyCheckedIn {
		slog.Info("checkin_event", "event", "already_checked_in", "event_id", eventID, "email", email)
	} else {
		slog.Info("checkin_event", "event", "student_checked_in", "event_id", eventID, "email", email)
	}
	return &result, nil
}

// ListAttendance returns the check-ins of an event ordered by check-in time.
func (s *CheckInService) ListAttendance(ctx context.Context, eventID string) ([]model.Attendance, error) {
	if _, err := s.store.Events().Get(ctx, eventID); err != nil {
		return nil, notFoundAsEvent(err, "get event")
	}
	list, err := s.store.Attendance().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return list, nil
}
