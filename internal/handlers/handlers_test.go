package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/trackdeck/backend/internal/broker"
	"github.com/trackdeck/backend/internal/config"
	"github.com/trackdeck/backend/internal/crypto"
	"github.com/trackdeck/backend/internal/database"
	"github.com/trackdeck/backend/internal/middleware"
	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/services"
	"github.com/trackdeck/backend/internal/store"
)

type fixture struct {
	router   chi.Router
	store    *store.Store
	codes    *services.CodeService
	queue    *services.QueueService
	requests *services.RequestService
}

// newFixture builds the service stack on a real sqlite store and mounts the
// routes under test without the auth middleware; role-dependent handlers get
// claims injected per request.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	st := store.New(db, broker.New())
	codes := services.NewCodeService(st)
	history := services.NewHistoryService(st)
	queue := services.NewQueueService(st, history)
	requests := services.NewRequestService(st, codes)
	playlists := services.NewPlaylistService(st, queue)

	requestHandler := NewRequestHandler(requests, queue)
	queueHandler := NewQueueHandler(queue)
	codeHandler := NewCodeHandler(codes)
	historyHandler := NewHistoryHandler(history)
	playlistHandler := NewPlaylistHandler(playlists)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/requests/{kind}", func(r chi.Router) {
			r.Get("/", requestHandler.List)
			r.Post("/", requestHandler.Submit)
			r.Delete("/", requestHandler.Clear)
			r.Put("/{rid}/approve", requestHandler.Approve)
			r.Put("/{rid}/reject", requestHandler.Reject)
			r.Delete("/{rid}", requestHandler.Remove)
		})
		r.Route("/queue", func(r chi.Router) {
			r.Get("/", queueHandler.List)
			r.Put("/reorder", queueHandler.Reorder)
			r.Post("/{eid}/played", queueHandler.MarkPlayed)
			r.Delete("/{eid}", queueHandler.Remove)
		})
		r.Get("/history", historyHandler.List)
		r.Route("/codes", func(r chi.Router) {
			r.Get("/", codeHandler.List)
			r.Post("/", codeHandler.Create)
			r.Post("/batch", codeHandler.CreateBatch)
		})
		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", playlistHandler.List)
			r.Post("/", playlistHandler.Create)
			r.Post("/{pid}/tracks", playlistHandler.AddTrack)
			r.Post("/{pid}/load", playlistHandler.Load)
		})
	})

	return &fixture{router: r, store: st, codes: codes, queue: queue, requests: requests}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	// All routes under test run with DJ claims; the role gate itself is
	// middleware and is exercised separately.
	claims := &services.Claims{Role: services.RoleDJ}
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClaimsKey, claims))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func submitTrack(n int) models.TrackRef {
	return models.TrackRef{
		CatalogID:   "track-" + string(rune('a'+n)),
		Title:       "Song",
		ArtistNames: []string{"Artist"},
		DurationMS:  180000,
	}
}

func TestSubmitAndListRequests(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/requests/free", models.SubmitRequestRequest{Track: submitTrack(0)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decode[models.RequestResponse](t, rec)
	if created.State != models.RequestStatePending {
		t.Errorf("State = %q, want pending", created.State)
	}

	rec = f.do(t, http.MethodGet, "/api/requests/free", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	list := decode[[]models.RequestResponse](t, rec)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v, want the created request", list)
	}
}

func TestSubmitRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/requests/vip", models.SubmitRequestRequest{Track: submitTrack(0)})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSubmitRejectsMissingTrack(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/requests/free", models.SubmitRequestRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSubmitPremiumWithInvalidCode(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/requests/premium", models.SubmitRequestRequest{
		Track: submitTrack(0),
		Code:  "NOPE99",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestApproveAdmitsToQueueExactlyOnce(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/requests/free", models.SubmitRequestRequest{Track: submitTrack(0)})
	created := decode[models.RequestResponse](t, rec)

	// First approval transitions and admits
	rec = f.do(t, http.MethodPut, "/api/requests/free/"+created.ID+"/approve", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	first := decode[models.TransitionResponse](t, rec)
	if !first.Transitioned {
		t.Error("Transitioned = false, want true")
	}
	if first.QueueEntryID == "" {
		t.Error("QueueEntryID empty after approval")
	}

	// Second approval is a no-op and must not enqueue again
	rec = f.do(t, http.MethodPut, "/api/requests/free/"+created.ID+"/approve", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	second := decode[models.TransitionResponse](t, rec)
	if second.Transitioned {
		t.Error("Transitioned = true on repeat approval")
	}
	if second.QueueEntryID != "" {
		t.Error("repeat approval produced a queue entry")
	}

	rec = f.do(t, http.MethodGet, "/api/queue", nil)
	entries := decode[[]models.QueueEntryResponse](t, rec)
	if len(entries) != 1 {
		t.Errorf("queue len = %d, want 1", len(entries))
	}
}

func TestRejectThenApproveDoesNotAdmit(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/requests/free", models.SubmitRequestRequest{Track: submitTrack(0)})
	created := decode[models.RequestResponse](t, rec)

	rec = f.do(t, http.MethodPut, "/api/requests/free/"+created.ID+"/reject", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = f.do(t, http.MethodPut, "/api/requests/free/"+created.ID+"/approve", nil)
	resp := decode[models.TransitionResponse](t, rec)
	if resp.Transitioned {
		t.Error("approve after reject transitioned")
	}

	rec = f.do(t, http.MethodGet, "/api/queue", nil)
	entries := decode[[]models.QueueEntryResponse](t, rec)
	if len(entries) != 0 {
		t.Errorf("queue len = %d, want 0", len(entries))
	}
}

func TestApproveUnknownRequest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/requests/free/nonexistent/approve", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestMarkPlayedHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entryID, err := f.queue.Admit(ctx, submitTrack(0), models.RequestKindFree, nil)
	if err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/queue/"+entryID+"/played", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decode[models.MarkPlayedResponse](t, rec)
	if resp.HistoryID == "" || !resp.Removed {
		t.Errorf("resp = %+v, want history id and removed", resp)
	}

	// A second mark on the now-removed entry is a clean 404, not a second
	// history row
	rec = f.do(t, http.MethodPost, "/api/queue/"+entryID+"/played", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = f.do(t, http.MethodGet, "/api/history", nil)
	entries := decode[[]models.HistoryEntryResponse](t, rec)
	if len(entries) != 1 {
		t.Errorf("history len = %d, want 1", len(entries))
	}
}

func TestReorderHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := f.queue.Admit(ctx, submitTrack(i), models.RequestKindFree, nil)
		if err != nil {
			t.Fatalf("Admit failed: %v", err)
		}
		ids = append(ids, id)
	}

	rec := f.do(t, http.MethodPut, "/api/queue/reorder", models.ReorderRequest{EntryID: ids[0], NewIndex: 2})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/queue", nil)
	entries := decode[[]models.QueueEntryResponse](t, rec)
	want := []string{ids[1], ids[2], ids[0]}
	for i, w := range want {
		if entries[i].ID != w {
			t.Errorf("position %d = %s, want %s", i, entries[i].ID, w)
		}
	}
}

func TestReorderHandlerValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/queue/reorder", models.ReorderRequest{NewIndex: 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = f.do(t, http.MethodPut, "/api/queue/reorder", models.ReorderRequest{EntryID: "nonexistent", NewIndex: 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateCodeHandler(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/codes", models.CreateCodeRequest{Code: "abc123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decode[models.CodeResponse](t, rec)
	if created.Value != "ABC123" {
		t.Errorf("Value = %q, want ABC123", created.Value)
	}

	// Duplicate → 409
	rec = f.do(t, http.MethodPost, "/api/codes", models.CreateCodeRequest{Code: "ABC123"})
	if rec.Code != http.StatusConflict {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// Wrong length → 400
	rec = f.do(t, http.MethodPost, "/api/codes", models.CreateCodeRequest{Code: "ABC"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateCodeBatchHandler(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/codes/batch", models.CreateCodeBatchRequest{Count: 4})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	resp := decode[models.CreateCodeBatchResponse](t, rec)
	if resp.Requested != 4 {
		t.Errorf("Requested = %d, want 4", resp.Requested)
	}
	if len(resp.Created) != 4 {
		t.Errorf("Created len = %d, want 4", len(resp.Created))
	}
}

func TestPlaylistHandlers(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/playlists", models.CreatePlaylistRequest{Name: "Set"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decode[models.PlaylistResponse](t, rec)
	if created.OwnerID != string(services.RoleDJ) {
		t.Errorf("OwnerID = %q, want dj", created.OwnerID)
	}

	// Loading an empty playlist is a 400
	rec = f.do(t, http.MethodPost, "/api/playlists/"+created.ID+"/load", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = f.do(t, http.MethodPost, "/api/playlists/"+created.ID+"/tracks", models.AddPlaylistTrackRequest{Track: submitTrack(0)})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	// Duplicate track → 409
	rec = f.do(t, http.MethodPost, "/api/playlists/"+created.ID+"/tracks", models.AddPlaylistTrackRequest{Track: submitTrack(0)})
	if rec.Code != http.StatusConflict {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = f.do(t, http.MethodPost, "/api/playlists/"+created.ID+"/load", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	loaded := decode[models.LoadPlaylistResponse](t, rec)
	if loaded.Admitted != 1 {
		t.Errorf("Admitted = %d, want 1", loaded.Admitted)
	}

	rec = f.do(t, http.MethodGet, "/api/queue", nil)
	entries := decode[[]models.QueueEntryResponse](t, rec)
	if len(entries) != 1 {
		t.Errorf("queue len = %d, want 1", len(entries))
	}
}

func TestDJLoginHandler(t *testing.T) {
	cfg := &config.Config{
		DJPortalPassword: "test-password",
		JWTSecret:        "test-secret",
		DJTokenDuration:  time.Hour,
	}
	auth := services.NewAuthService(cfg.JWTSecret, cfg.DJTokenDuration, time.Hour)
	handler := NewAuthHandler(cfg, auth, nil)

	correctHash, err := crypto.HashDJPassword("test-password")
	if err != nil {
		t.Fatalf("HashDJPassword failed: %v", err)
	}
	wrongHash, err := crypto.HashDJPassword("wrong-password")
	if err != nil {
		t.Fatalf("HashDJPassword failed: %v", err)
	}

	tests := []struct {
		name           string
		passwordHash   string
		expectedStatus int
	}{
		{"correct password hash", correctHash, http.StatusOK},
		{"wrong password hash", wrongHash, http.StatusUnauthorized},
		{"empty hash", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(models.DJLoginRequest{PasswordHash: tt.passwordHash})
			req := httptest.NewRequest(http.MethodPost, "/api/auth/dj", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.DJLogin(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status = %d, want %d", rec.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			resp := decode[models.TokenResponse](t, rec)
			if resp.Role != string(services.RoleDJ) {
				t.Errorf("Role = %q, want dj", resp.Role)
			}
			claims, err := auth.ValidateToken(resp.Token)
			if err != nil {
				t.Fatalf("issued token invalid: %v", err)
			}
			if claims.Role != services.RoleDJ {
				t.Errorf("token Role = %q, want dj", claims.Role)
			}
		})
	}
}

func TestDJLoginInvalidJSON(t *testing.T) {
	cfg := &config.Config{DJPortalPassword: "test"}
	handler := NewAuthHandler(cfg, services.NewAuthService("s", time.Hour, time.Hour), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/dj", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.DJLogin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
