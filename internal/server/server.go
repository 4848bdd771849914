// Package server exposes the dashboard API consumed by the single-page
// frontend: the current snapshot, the simulate trigger and an
// out-of-band refresh.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
	"github.com/earth-sentinel/sentinel-dash/internal/simulation"
	"github.com/earth-sentinel/sentinel-dash/internal/store"
	"github.com/earth-sentinel/sentinel-dash/internal/view"
)

// Refresher forces one sync tick out of band.
type Refresher interface {
	RunTick(ctx context.Context)
}

type Handler struct {
	store        *store.Store
	orchestrator *simulation.Orchestrator
	refresher    Refresher
	logger       logr.Logger
}

func NewHandler(store *store.Store, orchestrator *simulation.Orchestrator, refresher Refresher, logger logr.Logger) *Handler {
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		refresher:    refresher,
		logger:       logger,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", h.handleSnapshot)
		r.Post("/simulate", h.handleSimulate)
		r.Post("/refresh", h.handleRefresh)
	})

	return r
}

type snapshotResponse struct {
	Snapshot entity.SyncSnapshot `json:"snapshot"`
	Overview view.Overview       `json:"overview"`
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := h.store.Snapshot()

	h.writeJSON(w, http.StatusOK, snapshotResponse{
		Snapshot: snapshot,
		Overview: view.BuildOverview(snapshot),
	})
}

type simulateRequest struct {
	EmergencyType string          `json:"emergency_type"`
	Location      entity.Location `json:"location"`
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req := simulateRequest{}

	if r.Body != nil && r.ContentLength != 0 {
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid request body")

			return
		}
	}

	result, err := h.orchestrator.Simulate(r.Context(), req.Location, req.EmergencyType)

	switch {
	case errors.Is(err, simulation.ErrSimulationInFlight):
		h.writeError(w, http.StatusConflict, err.Error())

		return
	case err != nil:
		h.logger.Error(err, "Simulation aborted")
		h.writeError(w, http.StatusBadGateway, err.Error())

		return
	}

	// Surface the workflow effects without waiting for the next tick.
	h.refresher.RunTick(r.Context())

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h.refresher.RunTick(r.Context())

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.logger.Error(err, "Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, map[string]string{"error": msg})
}
