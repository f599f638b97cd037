package handlers

import (
	"net/http"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
)

// AdminHandler serves event-wide administrative actions. DJ only.
type AdminHandler struct {
	requests *services.RequestService
	queue    *services.QueueService
	history  *services.HistoryService
}

// NewAdminHandler creates an AdminHandler with the given services.
func NewAdminHandler(requests *services.RequestService, queue *services.QueueService, history *services.HistoryService) *AdminHandler {
	return &AdminHandler{requests: requests, queue: queue, history: history}
}

// ResetEvent clears both request streams, the play queue, and the play
// history, preparing the system for the next event. Playlists and premium
// codes survive a reset. Each clear runs independently: a failure in one
// does not stop the others, and the response reports which succeeded.
func (h *AdminHandler) ResetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	response := models.ResetEventResponse{}

	record := func(name string, err error) {
		if err != nil {
			response.Failed = append(response.Failed, name)
			return
		}
		response.Cleared = append(response.Cleared, name)
	}

	record("free_requests", h.requests.Clear(ctx, models.RequestKindFree))
	record("premium_requests", h.requests.Clear(ctx, models.RequestKindPremium))
	record("play_queue", h.queue.Clear(ctx))
	record("play_history", h.history.Clear(ctx))

	status := http.StatusOK
	if len(response.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, response)
}
