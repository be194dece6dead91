package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
)

const defaultListLimit = 50

// RunsHandler serves persisted pipeline run records
type RunsHandler struct {
	store interfaces.RunStore
}

// NewRunsHandler creates a new RunsHandler
func NewRunsHandler(store interfaces.RunStore) *RunsHandler {
	return &RunsHandler{store: store}
}

// List responds with recent runs, newest first
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, goerr.New("invalid limit parameter"), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.store.List(ctx, limit)
	if err != nil {
		ctxlog.From(ctx).Error("failed to list runs", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"runs": runs}); err != nil {
		ctxlog.From(ctx).Error("failed to encode runs response", "error", err)
	}
}

// Get responds with a single run by ID
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	run, err := h.store.Get(ctx, id)
	if err != nil {
		writeError(w, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(run); err != nil {
		ctxlog.From(ctx).Error("failed to encode run response", "error", err)
	}
}
