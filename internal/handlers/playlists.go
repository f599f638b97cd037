package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trackdeck/backend/internal/middleware"
	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
)

// PlaylistHandler serves the DJ playlist library. DJ only.
type PlaylistHandler struct {
	playlists *services.PlaylistService
}

// NewPlaylistHandler creates a PlaylistHandler with the given playlist service.
func NewPlaylistHandler(playlists *services.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists}
}

// playlistOwner derives the owner id from the authenticated claims. A
// deployment has a single DJ, so the role doubles as the owner id.
func playlistOwner(r *http.Request) string {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		return ""
	}
	return string(claims.Role)
}

// List returns the caller's playlists, newest first.
func (h *PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.playlists.ListForOwner(r.Context(), playlistOwner(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	response := make([]models.PlaylistResponse, len(docs))
	for i, doc := range docs {
		response[i] = playlistToResponse(doc)
	}
	writeJSON(w, http.StatusOK, response)
}

// Create makes a new empty playlist.
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.playlists.Create(r.Context(), req.Name, playlistOwner(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlistToResponse(doc))
}

// Get returns a single playlist with its items.
func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "pid")

	doc, err := h.playlists.Get(r.Context(), playlistID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistToResponse(doc))
}

// Rename changes the playlist's name.
func (h *PlaylistHandler) Rename(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "pid")

	var req models.RenamePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.playlists.Rename(r.Context(), playlistID, req.Name); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes the playlist.
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "pid")

	if err := h.playlists.Delete(r.Context(), playlistID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTrack appends a track to the playlist. Duplicate catalog ids are
// rejected with 409.
func (h *PlaylistHandler) AddTrack(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "pid")

	var req models.AddPlaylistTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Track.CatalogID == "" {
		writeError(w, http.StatusBadRequest, "track catalogId is required")
		return
	}

	if err := h.playlists.AddTrack(r.Context(), playlistID, req.Track); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveTrack removes a track from the playlist by catalog id. Removing a
// track that is not in the list succeeds without effect.
func (h *PlaylistHandler) RemoveTrack(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "pid")
	trackID := chi.URLParam(r, "tid")

	if err := h.playlists.RemoveTrack(r.Context(), playlistID, trackID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Load copies the playlist's tracks into the play queue, in list order,
// behind whatever is already queued.
func (h *PlaylistHandler) Load(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "pid")

	admitted, err := h.playlists.LoadIntoQueue(r.Context(), playlistID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.LoadPlaylistResponse{Admitted: admitted})
}

func playlistToResponse(doc models.PlaylistDoc) models.PlaylistResponse {
	items := doc.Items
	if items == nil {
		items = []models.TrackRef{}
	}
	return models.PlaylistResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		OwnerID:    doc.OwnerID,
		CreatedAt:  models.TimeFromMillis(doc.CreatedAt),
		ModifiedAt: models.TimeFromMillis(doc.ModifiedAt),
		Items:      items,
	}
}
