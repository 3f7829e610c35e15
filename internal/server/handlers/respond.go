// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"propmap/internal/domain/temporal"
	"propmap/internal/service/sequence"
)

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		zap.L().Error("http error",
			zap.Int("code", code),
			zap.String("message", message),
			zap.Error(err),
		)
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}

// respondWithDomainError maps service errors onto HTTP status codes
func respondWithDomainError(w http.ResponseWriter, fallback string, err error) {
	switch {
	case errors.Is(err, temporal.ErrViewNotFound):
		respondWithError(w, http.StatusNotFound, "View not found", nil)
	case errors.Is(err, temporal.ErrDatasetNotFound):
		respondWithError(w, http.StatusNotFound, "Dataset not found", nil)
	case errors.Is(err, temporal.ErrTooManyViews):
		respondWithError(w, http.StatusServiceUnavailable, "Too many open views", nil)
	case errors.Is(err, sequence.ErrDisabled):
		respondWithError(w, http.StatusConflict, "Sequence control is disabled", nil)
	case errors.Is(err, sequence.ErrReentrant):
		respondWithError(w, http.StatusConflict, "Transition already in progress", nil)
	case errors.Is(err, sequence.ErrOutOfRange):
		respondWithError(w, http.StatusBadRequest, "Index out of range", nil)
	case errors.Is(err, sequence.ErrUnknown):
		respondWithError(w, http.StatusBadRequest, "Unknown action", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, fallback, err)
	}
}
