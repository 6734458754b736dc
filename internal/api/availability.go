package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"clinbook/internal/metrics"
	"clinbook/internal/service"
)

// AvailabilityResponse is the response for GET /api/availability.
type AvailabilityResponse struct {
	Date            string   `json:"date"`
	ProfessionalID  int64    `json:"professional_id"`
	DurationMinutes int      `json:"duration_minutes"`
	Slots           []string `json:"slots"`
}

// handleAvailability returns the bookable start times for one professional
// and date.
// GET /api/availability?professional_id=1&date=2024-07-05&duration=90&ignore_booking_id=7
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	q := r.URL.Query()

	professionalID, err := strconv.ParseInt(q.Get("professional_id"), 10, 64)
	if err != nil || professionalID <= 0 {
		writeError(w, http.StatusBadRequest, "professional_id is required")
		return
	}

	date, err := time.Parse(dateLayout, q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil || duration <= 0 {
		writeError(w, http.StatusBadRequest, "duration is required and must be positive minutes")
		return
	}

	var ignoreBookingID int64
	if raw := q.Get("ignore_booking_id"); raw != "" {
		ignoreBookingID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ignore_booking_id")
			return
		}
	}

	slots, err := s.svc.AvailableSlots(r.Context(), professionalID, date, duration, ignoreBookingID)
	if err != nil {
		if errors.Is(err, service.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).
			Int64("professional_id", professionalID).
			Str("date", q.Get("date")).
			Msg("availability query failed")
		writeError(w, http.StatusInternalServerError, "failed to compute availability")
		return
	}

	formatted := make([]string, 0, len(slots))
	for _, slot := range slots {
		formatted = append(formatted, slot.String())
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		Date:            date.Format(dateLayout),
		ProfessionalID:  professionalID,
		DurationMinutes: duration,
		Slots:           formatted,
	})
}
