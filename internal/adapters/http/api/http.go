// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/innings/internal/adapters/mq/queue"
	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/internal/domain/answer"
	"github.com/okian/innings/internal/domain/dedupe"
	"github.com/okian/innings/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Submit hands a candidate to the ingestion queue.
	Submit(ctx context.Context, c queue.Candidate) error

	// Read operations expose published snapshots.
	Current(ctx context.Context) repository.Versioned
	At(ctx context.Context, version uint64) (repository.Versioned, error)

	// Ask answers a question against a snapshot.
	Ask(ctx context.Context, query string, state model.MatchState) answer.Answer
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	stateHandler  *StateHandler
	queryHandler  *QueryHandler
	stream        http.Handler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithStream serves h on /ws.
func WithStream(h http.Handler) ServerOption {
	return func(s *Server) { s.stream = h }
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		eventsHandler: NewEventsHandler(deps),
		stateHandler:  NewStateHandler(deps),
		queryHandler:  NewQueryHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/state", MetricsMiddleware(s.stateHandler.HandleGetState, "state"))
	mux.HandleFunc("/query", MetricsMiddleware(s.queryHandler.HandleQuery, "query"))
	if s.stream != nil {
		// Not wrapped: the middleware writer does not support hijacking.
		mux.Handle("/ws", s.stream)
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	EventID   string `json:"event_id,omitempty"`
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
