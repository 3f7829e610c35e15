// internal/server/handlers/view.go

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"propmap/internal/domain/temporal"
)

// ViewHandler handles map view HTTP requests
type ViewHandler struct {
	manager        temporal.ViewManager
	defaultDataset string
	settings       temporal.MapSettings
}

// NewViewHandler creates a new view handler
func NewViewHandler(manager temporal.ViewManager, defaultDataset string, settings temporal.MapSettings) *ViewHandler {
	return &ViewHandler{
		manager:        manager,
		defaultDataset: defaultDataset,
		settings:       settings,
	}
}

// CreateViewRequest is the body of a view creation request
type CreateViewRequest struct {
	Dataset string `json:"dataset"`
}

// SeekRequest is the body of an absolute slider move
type SeekRequest struct {
	Index *int `json:"index"`
}

// GetSettings returns the map defaults a client needs before creating a view
func (h *ViewHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"default_dataset": h.defaultDataset,
		"map":             h.settings,
	})
}

// CreateView opens a new map view on a dataset
func (h *ViewHandler) CreateView(w http.ResponseWriter, r *http.Request) {
	var req CreateViewRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request payload", err)
			return
		}
	}
	if req.Dataset == "" {
		req.Dataset = h.defaultDataset
	}

	state, err := h.manager.CreateView(r.Context(), req.Dataset)
	if err != nil {
		respondWithDomainError(w, "Failed to create view", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, state)
}

// GetView returns the current state of a view
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	state, err := h.manager.GetView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, "Failed to get view", err)
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}

// DeleteView closes a view and tears down its symbols
func (h *ViewHandler) DeleteView(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.CloseView(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithDomainError(w, "Failed to close view", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Forward steps a view to the next attribute
func (h *ViewHandler) Forward(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, temporal.ActionForward, 0)
}

// Reverse steps a view to the previous attribute
func (h *ViewHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, temporal.ActionReverse, 0)
}

// Seek moves a view's slider to an absolute index
func (h *ViewHandler) Seek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}
	if req.Index == nil {
		respondWithError(w, http.StatusBadRequest, "Missing index", nil)
		return
	}

	h.step(w, r, temporal.ActionSeek, *req.Index)
}

// GetSymbols returns a view's symbols as GeoJSON
func (h *ViewHandler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	data, err := h.manager.Symbols(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, "Failed to get symbols", err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetLegend returns a view's legend panel as HTML
func (h *ViewHandler) GetLegend(w http.ResponseWriter, r *http.Request) {
	data, err := h.manager.Legend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, "Failed to get legend", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ViewHandler) step(w http.ResponseWriter, r *http.Request, action temporal.Action, index int) {
	state, err := h.manager.Step(r.Context(), chi.URLParam(r, "id"), action, index)
	if err != nil {
		respondWithDomainError(w, "Failed to update view", err)
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}
