package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/leadtime/internal/domain/types"
)

// ListDependencies defines the interface for listing analyses.
type ListDependencies interface {
	List(ctx context.Context, limit int) ([]types.AnalysisSummary, error)
}

// ListHandler handles analysis list requests.
type ListHandler struct {
	deps     ListDependencies
	maxLimit int
}

// NewListHandler creates a new list handler.
func NewListHandler(deps ListDependencies, maxLimit int) *ListHandler {
	return &ListHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleList handles GET /analyses?limit=N requests. Without a limit the
// handler returns up to the configured maximum.
func (h *ListHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_analyses"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	list, err := h.deps.List(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if list == nil {
		list = []types.AnalysisSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}
