// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/presence/internal/domain/roster"
	"github.com/okian/presence/internal/domain/types"
	"github.com/okian/presence/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Session control.
	StartSession(ctx context.Context) error
	StopSession(ctx context.Context) error
	SetAttendanceActive(ctx context.Context, active bool) error
	Status(ctx context.Context) types.Status

	// Roster operations.
	Enroll(ctx context.Context, name string, items []string, images [][]byte) (types.EnrollmentSummary, error)
	People(ctx context.Context) []types.PersonInfo
	DeletePerson(ctx context.Context, name string) error

	// Attendance history, day in YYYY-MM-DD.
	Attendance(ctx context.Context, day string) ([]types.AttendanceRecord, error)

	// Live stream fan-out.
	Subscribe() (string, <-chan []byte)
	Unsubscribe(id string)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps Dependencies
}

// NewServer creates a new API server.
func NewServer(deps Dependencies) *Server {
	return &Server{deps: deps}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS())

	r.Post("/api/start", MetricsMiddleware(s.handleStart, "start"))
	r.Post("/api/stop", MetricsMiddleware(s.handleStop, "stop"))
	r.Post("/api/set_attendance", MetricsMiddleware(s.handleSetAttendance, "set_attendance"))
	r.Get("/api/status", MetricsMiddleware(s.handleStatus, "status"))
	r.Post("/api/add_person", MetricsMiddleware(s.handleAddPerson, "add_person"))
	r.Get("/api/get_people", MetricsMiddleware(s.handleGetPeople, "get_people"))
	r.Delete("/api/delete_person", MetricsMiddleware(s.handleDeletePerson, "delete_person"))
	r.Get("/api/attendance", MetricsMiddleware(s.handleAttendance, "attendance"))
	r.Get("/video", s.handleVideo)
	r.Get("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	r.Get("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP)

	return r
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates roster lookups to 404 responses.
func isNotFound(err error) bool {
	return errors.Is(err, roster.ErrNotFound)
}
