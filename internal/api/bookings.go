package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"clinbook/internal/db"
	"clinbook/internal/metrics"
	"clinbook/internal/models"
	"clinbook/internal/schedule"
	"clinbook/internal/service"
)

// CreateBookingRequest is the request body for POST /api/bookings.
type CreateBookingRequest struct {
	UserID          int64  `json:"user_id"`
	ProfessionalID  int64  `json:"professional_id"`
	ServiceID       int64  `json:"service_id"`
	Date            string `json:"date"`       // Format: YYYY-MM-DD
	StartTime       string `json:"start_time"` // Format: HH:MM
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes,omitempty"`
}

// CreateBookingResponse is the response for POST /api/bookings.
type CreateBookingResponse struct {
	Success   bool   `json:"success"`
	BookingID int64  `json:"booking_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CancelBookingRequest is the request body for POST /api/bookings/cancel.
type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id"`
}

func (r *CreateBookingRequest) startTime() (time.Time, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format; expected YYYY-MM-DD")
	}
	start, err := schedule.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_time format; expected HH:MM")
	}
	return start.OnDate(date), nil
}

// handleCreateBooking creates a single booking. The slot is re-checked
// against live bookings at write time; a lost race returns 409.
// POST /api/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CreateBookingResponse{Error: "invalid JSON body"})
		return
	}

	start, err := req.startTime()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CreateBookingResponse{Error: err.Error()})
		return
	}

	booking := &models.Booking{
		UserID:          req.UserID,
		ProfessionalID:  req.ProfessionalID,
		ServiceID:       req.ServiceID,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	}

	if err := s.svc.CreateBooking(r.Context(), booking); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalid):
			writeJSON(w, http.StatusBadRequest, CreateBookingResponse{Error: err.Error()})
		case errors.Is(err, db.ErrSlotTaken):
			writeJSON(w, http.StatusConflict, CreateBookingResponse{Error: "slot is no longer available"})
		default:
			s.log.Error().Err(err).
				Int64("professional_id", req.ProfessionalID).
				Str("date", req.Date).
				Msg("failed to create booking")
			writeJSON(w, http.StatusInternalServerError, CreateBookingResponse{Error: "failed to create booking"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, CreateBookingResponse{
		Success:   true,
		BookingID: booking.ID,
		Status:    booking.Status,
	})
}

// handleCancelBooking cancels one booking; canceling an already canceled
// booking succeeds.
// POST /api/bookings/cancel
func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CancelBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BookingID <= 0 {
		writeError(w, http.StatusBadRequest, "booking_id is required")
		return
	}

	if err := s.svc.CancelBooking(r.Context(), req.BookingID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		s.log.Error().Err(err).Int64("booking_id", req.BookingID).Msg("failed to cancel booking")
		writeError(w, http.StatusInternalServerError, "failed to cancel booking")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
