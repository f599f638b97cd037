package services

import (
	"context"
	"fmt"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/store"
)

// HistoryService is the append-only play history. Entries are written once
// when a queue entry is marked played and never mutated afterwards; only a
// bulk administrative clear removes them.
type HistoryService struct {
	store *store.Store
}

// NewHistoryService creates a HistoryService backed by the given store.
func NewHistoryService(st *store.Store) *HistoryService {
	return &HistoryService{store: st}
}

// Append records a played queue entry with playedAt set to now.
func (s *HistoryService) Append(ctx context.Context, entry models.QueueEntryDoc) (string, error) {
	doc := models.HistoryEntryDoc{
		Track:       entry.Track,
		Order:       entry.Order,
		SubmittedAt: entry.SubmittedAt,
		SourceType:  entry.SourceType,
		Status:      models.QueueStatusPlayed,
		PlayedAt:    models.NowMillis(),
	}
	id, err := s.store.Create(ctx, store.CollectionPlayHistory, doc)
	if err != nil {
		return "", fmt.Errorf("failed to append history entry: %w", err)
	}
	return id, nil
}

// List returns all history entries, most recently played first.
func (s *HistoryService) List(ctx context.Context) ([]models.HistoryEntryDoc, error) {
	var docs []models.HistoryEntryDoc
	if err := s.store.List(ctx, store.CollectionPlayHistory, "playedAt", true, &docs); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return docs, nil
}

// Subscribe delivers full history snapshots, most recent first, until ctx is
// cancelled.
func (s *HistoryService) Subscribe(ctx context.Context) <-chan []models.HistoryEntryDoc {
	return subscribeSnapshots[models.HistoryEntryDoc](ctx, s.store, store.CollectionPlayHistory, "playedAt", true)
}

// Clear deletes the entire history.
func (s *HistoryService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, store.CollectionPlayHistory)
}
