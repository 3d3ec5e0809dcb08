// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/campus-events/internal/auth"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
)

// Handler holds all HTTP handlers for the campus events API.
type Handler struct {
	events   *service.EventService
	regs     *service.RegistrationService
	checkins *service.CheckInService
	admin    *auth.Service
	store    repository.Store
}

// New constructs a Handler.
func New(store repository.Store, events *service.EventService, regs *service.RegistrationService,
	checkins *service.CheckInService, admin *auth.Service) *Handler {
	return &Handler{events: events, regs: regs, checkins: checkins, admin: admin, store: store}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service and repository errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, service.ErrCapacityExceeded):
		writeError(w, http.StatusBadRequest, "Registration limit reached for this event")
	case errors.Is(err, repository.ErrConstraintViolation):
		writeError(w, http.StatusConflict, "Student is already registered for this event")
	case errors.Is(err, repository.ErrTransient):
		writeError(w, http.StatusServiceUnavailable, "Service busy, please retry")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
// Registrations and attendance go with the event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Event deleted successfully"})
}

// Register handles POST /events/{id}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.regs.Register(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.RegisterResponse{Message: "Registered successfully", Registration: reg})
}

// ListParticipants handles GET /events/{id}/participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	regs, err := h.regs.ListParticipants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]model.Participant, 0, len(regs))
	for _, reg := range regs {
		out = append(out, model.Participant{
			StudentName:  reg.StudentName,
			StudentEmail: reg.StudentEmail,
			Department:   reg.Department,
			Year:         reg.Year,
			RegisteredAt: reg.RegisteredAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// CheckIn handles POST /events/{id}/checkin
// 201 on the first check-in, 200 when the student was already present.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.checkins.CheckIn(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if res.AlreadyCheckedIn {
		writeJSON(w, http.StatusOK, model.CheckInResponse{Message: "Already marked present for this event", Registered: res.Registered})
		return
	}
	writeJSON(w, http.StatusCreated, model.CheckInResponse{Message: "Attendance marked successfully", Registered: res.Registered})
}

// ListAttendance handles GET /events/{id}/attendance
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	list, err := h.checkins.ListAttendance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]model.AttendanceEntry, 0, len(list))
	for _, a := range list {
		out = append(out, model.AttendanceEntry{StudentEmail: a.StudentEmail, CheckedInAt: a.CheckedInAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// AdminLogin handles POST /admin/login
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.admin.Login(r.Context(), clientKey(r), req.Password); err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Login ok"})
}

// ChangePassword handles POST /admin/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.admin.ChangePassword(r.Context(), clientKey(r), req.OldPassword, req.NewPassword); err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Password updated successfully"})
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrPasswordRequired):
		writeError(w, http.StatusBadRequest, "Password required")
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrSamePassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, auth.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		slog.Error("admin request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// clientKey identifies the caller for login throttling. RealIP has already
// rewritten RemoteAddr when a proxy header is present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
