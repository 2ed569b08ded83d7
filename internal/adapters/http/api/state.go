package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/innings/internal/adapters/repository"
)

// StateDependencies defines the interface for snapshot reads.
type StateDependencies interface {
	Current(ctx context.Context) repository.Versioned
	At(ctx context.Context, version uint64) (repository.Versioned, error)
}

// StateHandler handles state requests.
type StateHandler struct {
	deps StateDependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps StateDependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

// HandleGetState handles GET /state and GET /state?version=N requests.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_state"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	raw := r.URL.Query().Get("version")
	if raw == "" {
		writeJSON(w, http.StatusOK, h.deps.Current(r.Context()))
		return
	}

	version, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := h.deps.At(r.Context(), version)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	default:
		writeJSON(w, http.StatusOK, v)
	}
}
