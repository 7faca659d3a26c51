package handlers

import (
	"encoding/json"
	"net/http"

	"moviemark/internal/logger"
	"moviemark/internal/models"
)

const (
	msgInvalidQuery = "Invalid search query"
	msgInvalidID    = "Invalid movie ID"
	msgNotFound     = "Movie not found"
	msgInternal     = "Internal server error"
)

// WriteError answers with `{"error": message}` and the given status. It is
// the only way handlers report failure.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, models.ErrorResponse{Error: message})
}

// WriteJSON encodes body with the given status. Encoding failures are
// logged because the header has already been sent.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Get().WithError(err).Error("Failed to encode response")
	}
}
