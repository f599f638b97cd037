// Package handlers contains the HTTP handlers for the TrackDeck API.
package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/trackdeck/backend/internal/config"
	"github.com/trackdeck/backend/internal/crypto"
	"github.com/trackdeck/backend/internal/logging"
	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
)

// AuthHandler issues JWTs: DJ tokens against the portal password, guest
// tokens against the event access key.
type AuthHandler struct {
	cfg       *config.Config
	auth      *services.AuthService
	eventKeys *services.EventKeyService
}

// NewAuthHandler creates an AuthHandler with the given configuration and services.
func NewAuthHandler(cfg *config.Config, auth *services.AuthService, eventKeys *services.EventKeyService) *AuthHandler {
	return &AuthHandler{cfg: cfg, auth: auth, eventKeys: eventKeys}
}

// DJLogin verifies the client-side scrypt hash of the portal password and
// issues a DJ token. The hash is salted with the UTC day, so a captured
// hash goes stale within a day.
func (h *AuthHandler) DJLogin(w http.ResponseWriter, r *http.Request) {
	var req models.DJLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expectedHash, err := crypto.HashDJPassword(h.cfg.DJPortalPassword)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "verification failed", err)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.PasswordHash), []byte(expectedHash)) != 1 {
		logging.LogSecurityEvent(r.Context(), logging.SecurityEventBadDJPassword, "dj password verification failed")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.auth.GenerateToken(services.RoleDJ)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to generate token", err)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{Token: token, Role: string(services.RoleDJ)})
}

// JoinEvent checks the presented event access key and issues a guest token.
func (h *AuthHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	var req models.JoinEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := h.eventKeys.Matches(r.Context(), req.EventKey)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to verify event key", err)
		return
	}
	if !ok {
		logging.LogSecurityEvent(r.Context(), logging.SecurityEventBadEventKey, "event key verification failed")
		writeError(w, http.StatusUnauthorized, "invalid event key")
		return
	}

	token, err := h.auth.GenerateToken(services.RoleGuest)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to generate token", err)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{Token: token, Role: string(services.RoleGuest)})
}

// EventKey returns the current event access key so the DJ can share it with
// guests. DJ only.
func (h *AuthHandler) EventKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.eventKeys.Current(r.Context())
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to read event key", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"eventKey": key})
}
