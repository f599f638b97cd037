package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/store"
)

// QueueService is the play-queue manager. Entries are ordered by a float
// order key; ties (which correct sequential admission never produces) break
// deterministically by entry id.
type QueueService struct {
	store   *store.Store
	history *HistoryService
}

// NewQueueService creates a QueueService backed by the given store and
// history log.
func NewQueueService(st *store.Store, history *HistoryService) *QueueService {
	return &QueueService{store: st, history: history}
}

// Admit appends a queue entry for the track. When explicitOrder is nil the
// order key is max existing + 1 (0 for an empty queue). The track descriptor
// is copied by value; the entry holds no reference to its originating request.
func (s *QueueService) Admit(ctx context.Context, track models.TrackRef, sourceType string, explicitOrder *float64) (string, error) {
	var order float64
	if explicitOrder != nil {
		order = *explicitOrder
	} else {
		next, err := s.nextOrder(ctx)
		if err != nil {
			return "", err
		}
		order = next
	}

	doc := models.QueueEntryDoc{
		Track:       track,
		Order:       order,
		SubmittedAt: models.NowMillis(),
		SourceType:  sourceType,
		Status:      models.QueueStatusWaiting,
	}
	id, err := s.store.Create(ctx, store.CollectionPlayQueue, doc)
	if err != nil {
		return "", fmt.Errorf("failed to admit queue entry: %w", err)
	}
	return id, nil
}

// nextOrder returns max existing order + 1, or 0 for an empty queue.
func (s *QueueService) nextOrder(ctx context.Context) (float64, error) {
	entries, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[len(entries)-1].Order + 1, nil
}

// Get returns a single queue entry by id.
func (s *QueueService) Get(ctx context.Context, entryID string) (models.QueueEntryDoc, error) {
	var entry models.QueueEntryDoc
	if err := s.store.Get(ctx, store.CollectionPlayQueue, entryID, &entry); err != nil {
		return models.QueueEntryDoc{}, err
	}
	return entry, nil
}

// Snapshot returns the full queue ordered by order key ascending.
func (s *QueueService) Snapshot(ctx context.Context) ([]models.QueueEntryDoc, error) {
	var entries []models.QueueEntryDoc
	if err := s.store.List(ctx, store.CollectionPlayQueue, "order", false, &entries); err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	return entries, nil
}

// Subscribe delivers full ordered queue snapshots until ctx is cancelled.
func (s *QueueService) Subscribe(ctx context.Context) <-chan []models.QueueEntryDoc {
	return subscribeSnapshots[models.QueueEntryDoc](ctx, s.store, store.CollectionPlayQueue, "order", false)
}

// Reorder moves the entry to newIndex and rewrites the order keys of the
// affected contiguous range so the live order matches the requested position.
// Entries that vanish between snapshot and rewrite are logged and skipped;
// the rest of the reorder still completes.
func (s *QueueService) Reorder(ctx context.Context, entryID string, newIndex int) error {
	entries, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	oldIndex := -1
	for i, e := range entries {
		if e.ID == entryID {
			oldIndex = i
			break
		}
	}
	if oldIndex == -1 {
		return store.ErrNotFound
	}

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex >= len(entries) {
		newIndex = len(entries) - 1
	}
	if newIndex == oldIndex {
		return nil
	}

	moved := entries[oldIndex]
	rest := append(append([]models.QueueEntryDoc{}, entries[:oldIndex]...), entries[oldIndex+1:]...)
	reordered := append(append(append([]models.QueueEntryDoc{}, rest[:newIndex]...), moved), rest[newIndex:]...)

	// Only the contiguous range between the two positions shifts. Each shifted
	// entry takes the key that previously lived at its new position, so keys
	// outside the range (which may not start at 0 after plays and removals)
	// still sort correctly around it.
	lo, hi := oldIndex, newIndex
	if lo > hi {
		lo, hi = hi, lo
	}
	for i := lo; i <= hi; i++ {
		err := s.store.Patch(ctx, store.CollectionPlayQueue, reordered[i].ID, map[string]any{
			"order": entries[i].Order,
		})
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("queue entry vanished during reorder, skipping",
				slog.String("entry_id", reordered[i].ID))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to rewrite order for entry %s: %w", reordered[i].ID, err)
		}
	}
	return nil
}

// Remove deletes the entry. Removing an already-gone entry is benign.
func (s *QueueService) Remove(ctx context.Context, entryID string) error {
	return s.store.Delete(ctx, store.CollectionPlayQueue, entryID)
}

// MarkPlayed appends the entry to the play history and then removes it from
// the queue. When the append succeeds but the removal fails, the history id
// is reported inside a PartialPlayError so the caller can retry the removal
// without appending history twice.
func (s *QueueService) MarkPlayed(ctx context.Context, entry models.QueueEntryDoc) (string, error) {
	historyID, err := s.history.Append(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("failed to append history: %w", err)
	}

	if err := s.store.Delete(ctx, store.CollectionPlayQueue, entry.ID); err != nil {
		return historyID, &PartialPlayError{
			HistoryID: historyID,
			EntryID:   entry.ID,
			Err:       err,
		}
	}
	return historyID, nil
}

// Clear deletes every queue entry.
func (s *QueueService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, store.CollectionPlayQueue)
}
