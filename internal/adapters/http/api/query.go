package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/internal/domain/answer"
	"github.com/okian/innings/internal/domain/model"
)

const maxQueryBytes = 8 << 10

// QueryDependencies defines the interface for answering questions.
type QueryDependencies interface {
	Current(ctx context.Context) repository.Versioned
	Ask(ctx context.Context, query string, state model.MatchState) answer.Answer
}

// QueryHandler handles query requests.
type QueryHandler struct {
	deps QueryDependencies
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(deps QueryDependencies) *QueryHandler {
	return &QueryHandler{deps: deps}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	answer.Answer
	Version uint64 `json:"version"`
}

// HandleQuery handles POST /query requests. The answer is computed against
// the snapshot current when the request arrived.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	const op = "api.query"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	snap := h.deps.Current(r.Context())
	ans := h.deps.Ask(r.Context(), req.Query, snap.State)
	writeJSON(w, http.StatusOK, queryResponse{Answer: ans, Version: snap.Version})
}
