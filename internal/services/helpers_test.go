package services

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/trackdeck/backend/internal/broker"
	"github.com/trackdeck/backend/internal/database"
	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return store.New(db, broker.New())
}

func testTrack(n int) models.TrackRef {
	return models.TrackRef{
		CatalogID:   fmt.Sprintf("track-%d", n),
		Title:       fmt.Sprintf("Song %d", n),
		ArtistNames: []string{"Artist"},
		AlbumTitle:  "Album",
		DurationMS:  180000,
	}
}
