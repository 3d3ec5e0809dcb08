// Package model defines the core domain types for the campus events system.
package model

import "time"

// Event represents a campus event created by an admin.
// RegLimit of 0 means registration is unlimited.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Venue           string    `json:"venue"`
	EventDateTime   time.Time `json:"event_datetime"`
	RegLimit        int       `json:"reg_limit"`
	RegisteredCount int       `json:"registered_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Unlimited reports whether the event accepts any number of registrations.
func (e *Event) Unlimited() bool {
	return e.RegLimit <= 0
}

// Remaining returns the number of open registration slots, or -1 when unlimited.
func (e *Event) Remaining() int {
	if e.Unlimited() {
		return -1
	}
	if n := e.RegLimit - e.RegisteredCount; n > 0 {
		return n
	}
	return 0
}

// IsFull returns true when a limited event has no slots left.
func (e *Event) IsFull() bool {
	return !e.Unlimited() && e.RegisteredCount >= e.RegLimit
}

// Registration represents a student's registration for an event.
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	Department   *string   `json:"department"`
	Year         *int      `json:"year"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Attendance represents a single check-in of a student at an event.
type Attendance struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	StudentEmail string    `json:"student_email"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

// CheckInResult summarises the outcome of a check-in.
// Registered is false when the student checked in without registering first.
type CheckInResult struct {
	Attendance       *Attendance
	AlreadyCheckedIn bool
	Registered       bool
}

// CreateEventRequest is the payload for creating a new event.
// EventDateTime accepts RFC 3339 or the HTML datetime-local form (2006-01-02T15:04).
type CreateEventRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Venue         string `json:"venue"`
	EventDateTime string `json:"event_datetime"`
	RegLimit      int    `json:"reg_limit"`
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	StudentName  string  `json:"student_name"`
	StudentEmail string  `json:"student_email"`
	Department   *string `json:"department,omitempty"`
	Year         *int    `json:"year,omitempty"`
}

// CheckInRequest is the payload for marking attendance.
type CheckInRequest struct {
	StudentEmail string `json:"student_email"`
}

// LoginRequest is the payload for admin login.
type LoginRequest struct {
	Password string `json:"password"`
}

// ChangePasswordRequest is the payload for rotating the admin password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// MessageResponse is a standard JSON success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message      string        `json:"message"`
	Registration *Registration `json:"registration"`
}

// CheckInResponse is returned by the check-in endpoint.
type CheckInResponse struct {
	Message    string `json:"message"`
	Registered bool   `json:"registered"`
}

// Participant is one row of an event's participant list.
type Participant struct {
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	Department   *string   `json:"department"`
	Year         *int      `json:"year"`
	RegisteredAt time.Time `json:"registered_at"`
}

// AttendanceEntry is one row of an event's attendance list.
type AttendanceEntry struct {
	StudentEmail string    `json:"student_email"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegistrationResult summarises the outcome of a single registration attempt.
// Used by the concurrent test harnesses.
type RegistrationResult struct {
	StudentEmail string
	Success      bool
	Error        error
}
