package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
)

// RequestHandler serves the two request streams (free and premium) and the
// DJ's approve/reject moderation actions.
type RequestHandler struct {
	requests *services.RequestService
	queue    *services.QueueService
}

// NewRequestHandler creates a RequestHandler with the given services.
func NewRequestHandler(requests *services.RequestService, queue *services.QueueService) *RequestHandler {
	return &RequestHandler{requests: requests, queue: queue}
}

// List returns all requests of the kind, oldest first.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	docs, err := h.requests.List(r.Context(), kind)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	response := make([]models.RequestResponse, len(docs))
	for i, doc := range docs {
		response[i] = requestToResponse(doc)
	}
	writeJSON(w, http.StatusOK, response)
}

// Submit creates a pending request. Premium submissions must carry a valid
// unused code, which is consumed as part of the submission.
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var req models.SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Track.CatalogID == "" || req.Track.Title == "" {
		writeError(w, http.StatusBadRequest, "track catalogId and title are required")
		return
	}

	id, err := h.requests.Submit(r.Context(), kind, req.Track, req.Code)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	doc, err := h.requests.Get(r.Context(), kind, id)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, requestToResponse(doc))
}

// Approve transitions a pending request to approved and admits its track to
// the play queue. Admission happens only when this call actually performed
// the transition, so a double-click or concurrent approval can never enqueue
// the track twice.
func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	requestID := chi.URLParam(r, "rid")

	doc, err := h.requests.Get(r.Context(), kind, requestID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	transitioned, err := h.requests.Transition(r.Context(), kind, requestID, models.RequestStateApproved)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	response := models.TransitionResponse{
		ID:           requestID,
		State:        models.RequestStateApproved,
		Transitioned: transitioned,
	}
	if transitioned {
		entryID, err := h.queue.Admit(r.Context(), doc.Track, kind, nil)
		if err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		response.QueueEntryID = entryID
	}
	writeJSON(w, http.StatusOK, response)
}

// Reject transitions a pending request to rejected. Already-resolved
// requests are left untouched and reported with transitioned=false.
func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	requestID := chi.URLParam(r, "rid")

	transitioned, err := h.requests.Transition(r.Context(), kind, requestID, models.RequestStateRejected)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TransitionResponse{
		ID:           requestID,
		State:        models.RequestStateRejected,
		Transitioned: transitioned,
	})
}

// Remove hard-deletes a request regardless of state.
func (h *RequestHandler) Remove(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	requestID := chi.URLParam(r, "rid")

	if err := h.requests.Remove(r.Context(), kind, requestID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear deletes every request of the kind.
func (h *RequestHandler) Clear(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	if err := h.requests.Clear(r.Context(), kind); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requestToResponse(doc models.RequestDoc) models.RequestResponse {
	return models.RequestResponse{
		ID:          doc.ID,
		Track:       doc.Track,
		SubmittedAt: models.TimeFromMillis(doc.SubmittedAt),
		State:       doc.State,
	}
}
