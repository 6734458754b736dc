package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"clinbook/internal/agenda"
	"clinbook/internal/metrics"
	"clinbook/internal/service"
)

// MaxAgendaDaysRange bounds how much of the calendar a single agenda
// request may expand.
const MaxAgendaDaysRange = 90

// AgendaResponse is the response for GET /api/agenda.
type AgendaResponse struct {
	Entries []agenda.Entry `json:"entries"`
	Period  struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"period"`
}

func parseAgendaRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	if q.Get("from") == "" || q.Get("to") == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("from and to are required")
	}
	from, err = time.Parse(dateLayout, q.Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from format; expected YYYY-MM-DD")
	}
	to, err = time.Parse(dateLayout, q.Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to format; expected YYYY-MM-DD")
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be before or equal to to")
	}
	if int(to.Sub(from).Hours()/24) > MaxAgendaDaysRange {
		return time.Time{}, time.Time{}, fmt.Errorf("date range exceeds maximum of %d days", MaxAgendaDaysRange)
	}
	return from, to, nil
}

// handleAgenda returns the merged appointment view for a date range.
// GET /api/agenda?from=2024-07-01&to=2024-07-31
func (s *HTTPServer) handleAgenda(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("agenda")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	from, to, err := parseAgendaRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.svc.Agenda(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, service.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).
			Str("from", r.URL.Query().Get("from")).
			Str("to", r.URL.Query().Get("to")).
			Msg("agenda query failed")
		writeError(w, http.StatusInternalServerError, "failed to build agenda")
		return
	}
	if entries == nil {
		entries = []agenda.Entry{}
	}

	resp := AgendaResponse{Entries: entries}
	resp.Period.From = from.Format(dateLayout)
	resp.Period.To = to.Format(dateLayout)
	writeJSON(w, http.StatusOK, resp)
}

// handleAgendaExport streams the agenda range as an xlsx workbook.
// GET /api/agenda/export?from=2024-07-01&to=2024-07-31
func (s *HTTPServer) handleAgendaExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("agenda_export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	from, to, err := parseAgendaRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename := fmt.Sprintf("agenda_%s_%s.xlsx", from.Format(dateLayout), to.Format(dateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.svc.ExportAgenda(r.Context(), from, to, w); err != nil {
		// Headers are already written; log and drop the connection state.
		s.log.Error().Err(err).Msg("agenda export failed")
	}
}
