package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trackdeck/backend/internal/logging"
	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
	"github.com/trackdeck/backend/internal/store"
)

// writeJSON serializes data as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response. For simple client errors (400-level),
// use: writeError(w, status, msg). For server errors with cause, use
// writeErrorWithCause.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}

// writeErrorWithCause writes an error response and logs the error with stack trace.
// Use this for server errors (500-level) where you have an underlying error to log.
func writeErrorWithCause(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	writeError(w, status, message)

	// Don't log 401/403 - handled by security event logging
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return
	}

	if status >= 400 && err != nil {
		wrappedErr := logging.WrapError(err, message)
		logging.LogErrorWithStatus(ctx, status, "error response", wrappedErr)
	}
}

// writeServiceError maps service-layer sentinel errors to HTTP statuses and
// writes the response. Unclassified errors become a 500 with the cause
// logged.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid or used premium code")
	case errors.Is(err, services.ErrEmptyPlaylist):
		writeError(w, http.StatusBadRequest, "playlist is empty")
	case errors.Is(err, services.ErrDuplicateCode):
		writeError(w, http.StatusConflict, "code already exists")
	case errors.Is(err, services.ErrDuplicateTrack):
		writeError(w, http.StatusConflict, "track already in playlist")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeErrorWithCause(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}
