package service

import (
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

// ErrInvalidInput is returned when required fields are missing or malformed.
// It is always wrapped with the specific reason.
var ErrInvalidInput = errors.New("invalid input")

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrCapacityExceeded is returned when a limited event has no slots left.
var ErrCapacityExceeded = errors.New("registration limit reached for this event")

// ErrAlreadyRegistered is a repository.ErrConstraintViolation on the
// (event, student) registration key.
var ErrAlreadyRegistered = fmt.Errorf("%w: student is already registered for this event", repository.ErrConstraintViolation)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFoundAsEvent maps a repository miss onto ErrEventNotFound.
func notFoundAsEvent(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
