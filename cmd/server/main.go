package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	sentrygo "github.com/getsentry/sentry-go"

	"github.com/trackdeck/backend/internal/broker"
	"github.com/trackdeck/backend/internal/config"
	"github.com/trackdeck/backend/internal/database"
	"github.com/trackdeck/backend/internal/logging"
	"github.com/trackdeck/backend/internal/router"
	"github.com/trackdeck/backend/internal/sentry"
	"github.com/trackdeck/backend/internal/store"
)

func main() {
	// Initialize structured logging (reads LOGGING_LEVEL env var)
	logging.Initialize()

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry if a DSN is configured
	if cfg.SentryDSN != "" {
		err := sentrygo.Init(sentrygo.ClientOptions{
			Dsn:                   cfg.SentryDSN,
			Environment:           cfg.SentryEnvironment,
			BeforeSend:            sentry.ScrubEvent,
			BeforeSendTransaction: sentry.ScrubTransaction,
		})
		if err != nil {
			slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sentrygo.Flush(2 * time.Second)
	}

	// Initialize database
	sqlDB, err := database.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(sqlDB); err != nil {
		slog.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Document store with change notifications
	st := store.New(sqlDB, broker.New())

	// Create router
	r := router.New(cfg, st)

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting server", slog.String("addr", addr))
	slog.Info("frontend should connect to", slog.String("url", "http://localhost"+addr))

	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
