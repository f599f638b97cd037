package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
)

// QueueHandler serves the live play queue.
type QueueHandler struct {
	queue *services.QueueService
}

// NewQueueHandler creates a QueueHandler with the given queue service.
func NewQueueHandler(queue *services.QueueService) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// List returns the full queue in play order.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queue.Snapshot(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	response := make([]models.QueueEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = queueEntryToResponse(entry)
	}
	writeJSON(w, http.StatusOK, response)
}

// Reorder moves an entry to a new position. The target index is clamped to
// the queue bounds.
func (h *QueueHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EntryID == "" {
		writeError(w, http.StatusBadRequest, "entryId is required")
		return
	}

	if err := h.queue.Reorder(r.Context(), req.EntryID, req.NewIndex); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove deletes an entry from the queue without playing it.
func (h *QueueHandler) Remove(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "eid")

	if err := h.queue.Remove(r.Context(), entryID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkPlayed moves an entry from the queue to the play history. If the
// history append landed but the queue removal failed, the history id is
// still reported with removed=false so the DJ console can retry the removal.
func (h *QueueHandler) MarkPlayed(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "eid")

	entry, err := h.queue.Get(r.Context(), entryID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	historyID, err := h.queue.MarkPlayed(r.Context(), entry)
	if err != nil {
		var partial *services.PartialPlayError
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusOK, models.MarkPlayedResponse{
				HistoryID: partial.HistoryID,
				Removed:   false,
			})
			return
		}
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MarkPlayedResponse{HistoryID: historyID, Removed: true})
}

// Clear empties the queue.
func (h *QueueHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Clear(r.Context()); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queueEntryToResponse(entry models.QueueEntryDoc) models.QueueEntryResponse {
	return models.QueueEntryResponse{
		ID:          entry.ID,
		Track:       entry.Track,
		Order:       entry.Order,
		SubmittedAt: models.TimeFromMillis(entry.SubmittedAt),
		SourceType:  entry.SourceType,
		Status:      entry.Status,
	}
}
