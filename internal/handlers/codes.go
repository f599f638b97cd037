package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
)

// CodeHandler serves the premium code registry. DJ only.
type CodeHandler struct {
	codes *services.CodeService
}

// NewCodeHandler creates a CodeHandler with the given code service.
func NewCodeHandler(codes *services.CodeService) *CodeHandler {
	return &CodeHandler{codes: codes}
}

// List returns all codes, newest first.
func (h *CodeHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.codes.List(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	response := make([]models.CodeResponse, len(docs))
	for i, doc := range docs {
		response[i] = codeToResponse(doc)
	}
	writeJSON(w, http.StatusOK, response)
}

// Create registers a single code with an explicit value.
func (h *CodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.codes.Create(r.Context(), req.Code)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, codeToResponse(doc))
}

// CreateBatch generates a batch of random codes. Collisions with existing
// values are skipped, so the created set may be smaller than requested.
func (h *CodeHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCodeBatchRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	created, err := h.codes.CreateBatch(r.Context(), req.Count)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	requested := req.Count
	if requested <= 0 {
		requested = 10
	}

	response := models.CreateCodeBatchResponse{
		Created:   make([]models.CodeResponse, len(created)),
		Requested: requested,
	}
	for i, doc := range created {
		response.Created[i] = codeToResponse(doc)
	}
	writeJSON(w, http.StatusCreated, response)
}

// Remove deletes a code by id.
func (h *CodeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	codeID := chi.URLParam(r, "cid")

	if err := h.codes.Remove(r.Context(), codeID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func codeToResponse(doc models.CodeDoc) models.CodeResponse {
	resp := models.CodeResponse{
		ID:        doc.ID,
		Value:     doc.Value,
		Used:      doc.Used(),
		CreatedAt: models.TimeFromMillis(doc.CreatedAt),
	}
	if doc.UsedAt != nil {
		usedAt := models.TimeFromMillis(*doc.UsedAt)
		resp.UsedAt = &usedAt
	}
	return resp
}
