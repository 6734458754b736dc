package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"clinbook/internal/db"
	"clinbook/internal/metrics"
	"clinbook/internal/models"
	"clinbook/internal/schedule"
	"clinbook/internal/service"
)

// CreateRecurringRequest is the request body for POST /api/recurring.
type CreateRecurringRequest struct {
	UserID          int64  `json:"user_id"`
	ProfessionalID  int64  `json:"professional_id"`
	ServiceID       int64  `json:"service_id"`
	StartDate       string `json:"start_date"` // Format: YYYY-MM-DD
	StartTime       string `json:"start_time"` // Format: HH:MM
	DurationMinutes int    `json:"duration_minutes"`
	Frequency       string `json:"frequency"`  // "weekly" or "monthly"
	UntilDate       string `json:"until_date"` // Format: YYYY-MM-DD, inclusive
}

// CreateRecurringResponse is the response for POST /api/recurring.
type CreateRecurringResponse struct {
	Success bool   `json:"success"`
	RuleID  int64  `json:"rule_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CancelRecurringRequest is the request body for POST /api/recurring/cancel.
type CancelRecurringRequest struct {
	RuleID int64 `json:"rule_id"`
}

// CancelInstanceRequest identifies one generated instance by its rule and
// start. POST /api/recurring/cancel-instance.
type CancelInstanceRequest struct {
	RuleID int64  `json:"rule_id"`
	Date   string `json:"date"` // Format: YYYY-MM-DD
	Time   string `json:"time"` // Format: HH:MM
}

// handleCreateRecurring registers a recurrence rule.
// POST /api/recurring
func (s *HTTPServer) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_recurring")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateRecurringRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CreateRecurringResponse{Error: "invalid JSON body"})
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CreateRecurringResponse{Error: "invalid start_date format; expected YYYY-MM-DD"})
		return
	}
	untilDate, err := time.Parse(dateLayout, req.UntilDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CreateRecurringResponse{Error: "invalid until_date format; expected YYYY-MM-DD"})
		return
	}
	startTime, err := schedule.ParseTimeOfDay(req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CreateRecurringResponse{Error: "invalid start_time format; expected HH:MM"})
		return
	}

	rule := &models.RecurrenceRule{
		UserID:          req.UserID,
		ProfessionalID:  req.ProfessionalID,
		ServiceID:       req.ServiceID,
		StartDate:       startDate,
		StartTime:       startTime,
		DurationMinutes: req.DurationMinutes,
		Frequency:       req.Frequency,
		UntilDate:       untilDate,
	}

	if err := s.svc.CreateRecurring(r.Context(), rule); err != nil {
		if errors.Is(err, service.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, CreateRecurringResponse{Error: err.Error()})
			return
		}
		s.log.Error().Err(err).
			Int64("professional_id", req.ProfessionalID).
			Str("frequency", req.Frequency).
			Msg("failed to create recurrence rule")
		writeJSON(w, http.StatusInternalServerError, CreateRecurringResponse{Error: "failed to create recurrence rule"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateRecurringResponse{Success: true, RuleID: rule.ID})
}

// handleCancelRecurring ends a whole rule. The transition is terminal, so a
// second cancel returns 409.
// POST /api/recurring/cancel
func (s *HTTPServer) handleCancelRecurring(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_recurring")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CancelRecurringRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RuleID <= 0 {
		writeError(w, http.StatusBadRequest, "rule_id is required")
		return
	}

	if err := s.svc.CancelRecurring(r.Context(), req.RuleID); err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			writeError(w, http.StatusNotFound, "rule not found")
		case errors.Is(err, db.ErrRuleTerminal):
			writeError(w, http.StatusConflict, "rule is no longer active")
		default:
			s.log.Error().Err(err).Int64("rule_id", req.RuleID).Msg("failed to cancel rule")
			writeError(w, http.StatusInternalServerError, "failed to cancel rule")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleCancelRuleInstance suppresses a single generated instance without
// touching the rule.
// POST /api/recurring/cancel-instance
func (s *HTTPServer) handleCancelRuleInstance(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_rule_instance")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CancelInstanceRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RuleID <= 0 {
		writeError(w, http.StatusBadRequest, "rule_id is required")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	startTime, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time format; expected HH:MM")
		return
	}

	if err := s.svc.CancelRuleInstance(r.Context(), req.RuleID, startTime.OnDate(date)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		s.log.Error().Err(err).
			Int64("rule_id", req.RuleID).
			Str("date", req.Date).
			Msg("failed to cancel rule instance")
		writeError(w, http.StatusInternalServerError, "failed to cancel instance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
