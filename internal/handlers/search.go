package handlers

import (
	"net/http"
	"strconv"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
)

// SearchHandler serves catalog search and preview resolution.
type SearchHandler struct {
	spotify *services.SpotifyService
	deezer  *services.DeezerService
}

// NewSearchHandler creates a SearchHandler with the given catalog clients.
func NewSearchHandler(spotify *services.SpotifyService, deezer *services.DeezerService) *SearchHandler {
	return &SearchHandler{spotify: spotify, deezer: deezer}
}

// Search handles track search queries against the catalog.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	tracks, err := h.spotify.Search(r.Context(), query, limit)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "search failed", err)
		return
	}

	writeJSON(w, http.StatusOK, models.SearchResponse{Tracks: tracks})
}

// Preview resolves a 30-second audio preview for a track. Tracks without a
// preview return an empty URL, not an error.
func (h *SearchHandler) Preview(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	artist := r.URL.Query().Get("artist")
	if title == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'title' is required")
		return
	}

	previewURL, err := h.deezer.FindPreview(r.Context(), title, artist)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "preview lookup failed", err)
		return
	}

	writeJSON(w, http.StatusOK, models.PreviewResponse{PreviewURL: previewURL})
}
