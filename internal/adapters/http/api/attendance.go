package api

import (
	"errors"
	"net/http"
	"time"

	service "github.com/okian/presence/internal/app"
	"github.com/okian/presence/internal/domain/ledger"
)

// handleAttendance handles GET /api/attendance?date=YYYY-MM-DD. Without a
// date it returns today's records.
func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = time.Now().Format(ledger.DayFormat)
	}

	records, err := s.deps.Attendance(r.Context(), day)
	if err != nil {
		if errors.Is(err, service.ErrBadDay) {
			writeError(w, http.StatusBadRequest, "bad_date", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "attendance_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
