// Package httpapi exposes the analysis engine over HTTP
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/civicaudit/groundtruth/internal/engine"
	"github.com/civicaudit/groundtruth/internal/registry"
)

// Router serves verification runs and their results
type Router struct {
	engine *engine.Engine
}

// NewRouter builds the HTTP handler
func NewRouter(eng *engine.Engine) http.Handler {
	r := &Router{engine: eng}
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1/projects/{id}", func(rt chi.Router) {
		rt.Post("/analysis", r.wrap(r.handleRunAnalysis))
		rt.Get("/analysis", r.wrap(r.handleLatestAnalysis))
		rt.Get("/analysis/state", r.wrap(r.handleRunState))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, registry.ErrNotFound):
				http.Error(w, "project not found", http.StatusNotFound)
			case errors.Is(err, registry.ErrNoAnalysis):
				http.Error(w, "no analysis available", http.StatusNotFound)
			case errors.Is(err, engine.ErrAlreadyRunning):
				http.Error(w, "analysis already running", http.StatusConflict)
			case errors.Is(err, engine.ErrNotAnalyzable):
				http.Error(w, "project has no usable location", http.StatusUnprocessableEntity)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// POST /v1/projects/{id}/analysis
// Runs a verification synchronously and returns the persisted result.
func (r *Router) handleRunAnalysis(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	result, err := r.engine.RunAnalysis(req.Context(), id)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /v1/projects/{id}/analysis
func (r *Router) handleLatestAnalysis(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	result, err := r.engine.LatestAnalysis(req.Context(), id)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /v1/projects/{id}/analysis/state
func (r *Router) handleRunState(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	state, active := r.engine.RunState(id)
	resp := map[string]any{"active": active}
	if active {
		resp["state"] = state
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}
