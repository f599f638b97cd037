package handlers

import (
	"net/http"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
)

// HistoryHandler serves the play history.
type HistoryHandler struct {
	history *services.HistoryService
}

// NewHistoryHandler creates a HistoryHandler with the given history service.
func NewHistoryHandler(history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List returns all history entries, most recently played first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.history.List(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	response := make([]models.HistoryEntryResponse, len(docs))
	for i, doc := range docs {
		response[i] = models.HistoryEntryResponse{
			ID:          doc.ID,
			Track:       doc.Track,
			SourceType:  doc.SourceType,
			SubmittedAt: models.TimeFromMillis(doc.SubmittedAt),
			PlayedAt:    models.TimeFromMillis(doc.PlayedAt),
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// Clear deletes the entire history.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
