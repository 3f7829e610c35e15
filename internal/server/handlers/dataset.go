// internal/server/handlers/dataset.go

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"propmap/internal/domain/temporal"
)

// DatasetHandler handles dataset-related HTTP requests
type DatasetHandler struct {
	catalog temporal.DatasetCatalog
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(catalog temporal.DatasetCatalog) *DatasetHandler {
	return &DatasetHandler{
		catalog: catalog,
	}
}

// GetAttributes returns the ordered attribute keys of a dataset
func (h *DatasetHandler) GetAttributes(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	keys, mismatches, err := h.catalog.Attributes(r.Context(), name)
	if err != nil {
		respondWithDomainError(w, "Failed to load dataset", err)
		return
	}

	if keys == nil {
		keys = []temporal.AttributeKey{}
	}
	if mismatches == nil {
		mismatches = []temporal.Mismatch{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"dataset":    name,
		"attributes": keys,
		"mismatches": mismatches,
	})
}

// GetStats returns the min, mean and max of every attribute of a dataset
func (h *DatasetHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	table, err := h.catalog.Stats(r.Context(), name)
	if err != nil {
		respondWithDomainError(w, "Failed to load dataset", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"dataset": name,
		"stats":   table,
	})
}

// Reload drops the cached copy of a dataset
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.catalog.Invalidate(chi.URLParam(r, "name"))
	w.WriteHeader(http.StatusNoContent)
}
