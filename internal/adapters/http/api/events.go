package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/innings/internal/adapters/mq/queue"
	"github.com/okian/innings/internal/domain/dedupe"
	"github.com/okian/innings/internal/domain/validation"
	"github.com/okian/innings/pkg/metrics"
)

const maxEventBytes = 64 << 10

// EventDependencies defines the interface for event intake.
type EventDependencies interface {
	dedupe.Deduper
	Submit(ctx context.Context, c queue.Candidate) error
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var payload map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ev, err := validation.Validate(payload)
	if err != nil {
		reason := validation.Reason(err)
		metrics.RecordEventRejected("validate", reason)
		writeError(w, http.StatusBadRequest, reason, WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), ev.ID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, EventID: ev.ID})
		return
	}

	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := queue.Candidate{ID: id, Source: queue.SourceHTTP, Event: &ev}
	if err := h.deps.Submit(r.Context(), c); err != nil {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), ev.ID)
		if errors.Is(err, queue.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
			return
		}
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: id})
}
