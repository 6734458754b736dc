// Package api exposes the booking system over HTTP: availability queries,
// booking and recurrence writes, and the agenda views.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"clinbook/internal/agenda"
	"clinbook/internal/models"
	"clinbook/internal/schedule"
)

const dateLayout = "2006-01-02"

// Service is the application surface the HTTP layer calls into.
type Service interface {
	AvailableSlots(ctx context.Context, professionalID int64, date time.Time, durationMinutes int, ignoreBookingID int64) ([]schedule.TimeOfDay, error)
	CreateBooking(ctx context.Context, b *models.Booking) error
	CancelBooking(ctx context.Context, id int64) error
	CreateRecurring(ctx context.Context, rule *models.RecurrenceRule) error
	CancelRecurring(ctx context.Context, id int64) error
	CancelRuleInstance(ctx context.Context, ruleID int64, start time.Time) error
	Agenda(ctx context.Context, from, to time.Time) ([]agenda.Entry, error)
	ExportAgenda(ctx context.Context, from, to time.Time, w io.Writer) error
}

// HTTPServer serves the booking API.
type HTTPServer struct {
	svc    Service
	log    zerolog.Logger
	apiKey string
	server *http.Server
}

// NewHTTPServer builds the server. An empty apiKey disables authentication,
// intended for local development only.
func NewHTTPServer(addr, apiKey string, svc Service, log zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc:    svc,
		log:    log,
		apiKey: apiKey,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/availability", s.handleAvailability)
	mux.HandleFunc("/api/bookings", s.handleCreateBooking)
	mux.HandleFunc("/api/bookings/cancel", s.handleCancelBooking)
	mux.HandleFunc("/api/recurring", s.handleCreateRecurring)
	mux.HandleFunc("/api/recurring/cancel", s.handleCancelRecurring)
	mux.HandleFunc("/api/recurring/cancel-instance", s.handleCancelRuleInstance)
	mux.HandleFunc("/api/agenda", s.handleAgenda)
	mux.HandleFunc("/api/agenda/export", s.handleAgendaExport)
	return s.withAuth(mux)
}

func (s *HTTPServer) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-Api-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start runs the server until it fails or is shut down.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("api server listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
