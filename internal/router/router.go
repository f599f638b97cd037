// Package router wires the HTTP surface: middleware chain, public auth
// routes, authenticated guest routes, and the DJ-only console routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/trackdeck/backend/internal/config"
	"github.com/trackdeck/backend/internal/handlers"
	"github.com/trackdeck/backend/internal/middleware"
	"github.com/trackdeck/backend/internal/services"
	"github.com/trackdeck/backend/internal/store"
)

func New(cfg *config.Config, st *store.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	realIP := middleware.NewRealIPMiddleware(cfg.TrustedProxies)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(realIP.Handler)
	r.Use(middleware.RequestContextMiddleware)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// Services
	authService := services.NewAuthService(cfg.JWTSecret, cfg.DJTokenDuration, cfg.GuestTokenDuration)
	eventKeyService := services.NewEventKeyService(st)
	codeService := services.NewCodeService(st)
	historyService := services.NewHistoryService(st)
	queueService := services.NewQueueService(st, historyService)
	requestService := services.NewRequestService(st, codeService)
	playlistService := services.NewPlaylistService(st, queueService)
	spotifyService := services.NewSpotifyService(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	deezerService := services.NewDeezerService()

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, authService, eventKeyService)
	configHandler := handlers.NewConfigHandler(cfg)
	requestHandler := handlers.NewRequestHandler(requestService, queueService)
	queueHandler := handlers.NewQueueHandler(queueService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	codeHandler := handlers.NewCodeHandler(codeService)
	playlistHandler := handlers.NewPlaylistHandler(playlistService)
	searchHandler := handlers.NewSearchHandler(spotifyService, deezerService)
	sseHandler := handlers.NewSSEHandler(st)
	adminHandler := handlers.NewAdminHandler(requestService, queueService, historyService)
	sentryTunnelHandler := handlers.NewSentryTunnelHandler(cfg)

	// Rate limiter shared by search and submit
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", handlers.Health)

		// Public configuration (Spotify client ID, etc.)
		r.Get("/config", configHandler.PublicConfig)

		// Sentry envelope tunnel for the frontend
		r.Post("/sentry-tunnel", sentryTunnelHandler.Tunnel)

		// Token issuance (no auth)
		r.Post("/auth/dj", authHandler.DJLogin)
		r.Post("/auth/join", authHandler.JoinEvent)

		// Authenticated routes (guest or dj)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(authService))
			r.Use(middleware.UpdateRequestContextMiddleware)

			r.With(rateLimiter.Middleware).Get("/search", searchHandler.Search)
			r.With(rateLimiter.Middleware).Get("/preview", searchHandler.Preview)

			r.Get("/events", sseHandler.Stream)
			r.Get("/queue", queueHandler.List)
			r.Get("/history", historyHandler.List)

			r.Route("/requests/{kind}", func(r chi.Router) {
				r.Get("/", requestHandler.List)
				r.With(rateLimiter.Middleware).Post("/", requestHandler.Submit)

				// DJ-only moderation
				r.Group(func(r chi.Router) {
					r.Use(middleware.DJOnlyMiddleware)
					r.Delete("/", requestHandler.Clear)
					r.Put("/{rid}/approve", requestHandler.Approve)
					r.Put("/{rid}/reject", requestHandler.Reject)
					r.Delete("/{rid}", requestHandler.Remove)
				})
			})

			// DJ-only console routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.DJOnlyMiddleware)

				r.Get("/event-key", authHandler.EventKey)
				r.Post("/admin/reset", adminHandler.ResetEvent)

				r.Route("/queue", func(r chi.Router) {
					r.Put("/reorder", queueHandler.Reorder)
					r.Delete("/", queueHandler.Clear)
					r.Post("/{eid}/played", queueHandler.MarkPlayed)
					r.Delete("/{eid}", queueHandler.Remove)
				})

				r.Delete("/history", historyHandler.Clear)

				r.Route("/codes", func(r chi.Router) {
					r.Get("/", codeHandler.List)
					r.Post("/", codeHandler.Create)
					r.Post("/batch", codeHandler.CreateBatch)
					r.Delete("/{cid}", codeHandler.Remove)
				})

				r.Route("/playlists", func(r chi.Router) {
					r.Get("/", playlistHandler.List)
					r.Post("/", playlistHandler.Create)
					r.Route("/{pid}", func(r chi.Router) {
						r.Get("/", playlistHandler.Get)
						r.Put("/", playlistHandler.Rename)
						r.Delete("/", playlistHandler.Delete)
						r.Post("/tracks", playlistHandler.AddTrack)
						r.Delete("/tracks/{tid}", playlistHandler.RemoveTrack)
						r.Post("/load", playlistHandler.Load)
					})
				})
			})
		})
	})

	return r
}
