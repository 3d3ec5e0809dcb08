package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router. When webDir is non-empty its files are
// served at the root.
func NewRouter(h *Handler, webDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(CORS)

	r.Get("/health", h.HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Delete("/{id}", h.DeleteEvent)
		r.Post("/{id}/register", h.Register)
		r.Get("/{id}/participants", h.ListParticipants)
		r.Post("/{id}/checkin", h.CheckIn)
		r.Get("/{id}/attendance", h.ListAttendance)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)
		r.Post("/change-password", h.ChangePassword)
	})

	if webDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(webDir)))
	}
	return r
}
