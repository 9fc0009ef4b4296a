package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/presence/internal/app"
)

// handleStart handles POST /api/start.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.StartSession(r.Context()); err != nil {
		if errors.Is(err, service.ErrSessionRunning) {
			writeError(w, http.StatusConflict, "session_running", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "start_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "started"})
}

// handleStop handles POST /api/stop.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.StopSession(r.Context()); err != nil {
		if errors.Is(err, service.ErrNotRunning) {
			writeError(w, http.StatusConflict, "not_running", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "stop_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "stopped"})
}

type setAttendanceRequest struct {
	Active bool `json:"active"`
}

// handleSetAttendance handles POST /api/set_attendance. Toggling attendance
// leaves a running camera session untouched.
func (s *Server) handleSetAttendance(w http.ResponseWriter, r *http.Request) {
	var req setAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := s.deps.SetAttendanceActive(r.Context(), req.Active); err != nil {
		if errors.Is(err, service.ErrNotStarted) {
			writeError(w, http.StatusConflict, "not_started", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "set_attendance_failed", err)
		return
	}
	status := "attendance_disabled"
	if req.Active {
		status = "attendance_enabled"
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status})
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Status(r.Context()))
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
