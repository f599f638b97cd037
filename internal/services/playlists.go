package services

import (
	"context"
	"fmt"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/store"
)

const maxPlaylistNameLength = 50

// PlaylistService is the DJ playlist library: named track collections kept
// independent of the live queue. Loading a playlist copies its tracks into
// the queue, it never moves them.
type PlaylistService struct {
	store *store.Store
	queue *QueueService
}

// NewPlaylistService creates a PlaylistService backed by the given store and
// queue manager.
func NewPlaylistService(st *store.Store, queue *QueueService) *PlaylistService {
	return &PlaylistService{store: st, queue: queue}
}

func validatePlaylistName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: playlist name must not be empty", ErrValidation)
	}
	if len(name) > maxPlaylistNameLength {
		return fmt.Errorf("%w: playlist name must be at most %d characters", ErrValidation, maxPlaylistNameLength)
	}
	return nil
}

// Create makes a new empty playlist owned by ownerID.
func (s *PlaylistService) Create(ctx context.Context, name, ownerID string) (models.PlaylistDoc, error) {
	if err := validatePlaylistName(name); err != nil {
		return models.PlaylistDoc{}, err
	}

	now := models.NowMillis()
	doc := models.PlaylistDoc{
		Name:       name,
		OwnerID:    ownerID,
		CreatedAt:  now,
		ModifiedAt: now,
		Items:      []models.TrackRef{},
	}
	id, err := s.store.Create(ctx, store.CollectionPlaylists, doc)
	if err != nil {
		return models.PlaylistDoc{}, fmt.Errorf("failed to create playlist: %w", err)
	}
	doc.ID = id
	return doc, nil
}

// Get returns a playlist by id.
func (s *PlaylistService) Get(ctx context.Context, id string) (models.PlaylistDoc, error) {
	var doc models.PlaylistDoc
	if err := s.store.Get(ctx, store.CollectionPlaylists, id, &doc); err != nil {
		return models.PlaylistDoc{}, err
	}
	return doc, nil
}

// ListForOwner returns the owner's playlists, newest first. The owner filter
// runs client-side over the full feed, matching the original behavior; fine
// for a single event's worth of playlists, a scalability ceiling beyond that.
// store.FindWhere on ownerId is the server-side replacement when needed.
func (s *PlaylistService) ListForOwner(ctx context.Context, ownerID string) ([]models.PlaylistDoc, error) {
	var all []models.PlaylistDoc
	if err := s.store.List(ctx, store.CollectionPlaylists, "createdAt", true, &all); err != nil {
		return nil, fmt.Errorf("failed to read playlists: %w", err)
	}

	owned := make([]models.PlaylistDoc, 0, len(all))
	for _, p := range all {
		if p.OwnerID == ownerID {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

// SubscribeForOwner delivers snapshots of the owner's playlists until ctx is
// cancelled. Filtering happens per delivery, over the full feed.
func (s *PlaylistService) SubscribeForOwner(ctx context.Context, ownerID string) <-chan []models.PlaylistDoc {
	all := subscribeSnapshots[models.PlaylistDoc](ctx, s.store, store.CollectionPlaylists, "createdAt", true)
	out := make(chan []models.PlaylistDoc, 1)

	go func() {
		defer close(out)
		for snapshot := range all {
			owned := make([]models.PlaylistDoc, 0, len(snapshot))
			for _, p := range snapshot {
				if p.OwnerID == ownerID {
					owned = append(owned, p)
				}
			}
			select {
			case out <- owned:
			default:
				select {
				case <-out:
				default:
				}
				out <- owned
			}
		}
	}()

	return out
}

// Rename changes the playlist's name and bumps modifiedAt.
func (s *PlaylistService) Rename(ctx context.Context, id, name string) error {
	if err := validatePlaylistName(name); err != nil {
		return err
	}
	return s.store.Patch(ctx, store.CollectionPlaylists, id, map[string]any{
		"name":       name,
		"modifiedAt": models.NowMillis(),
	})
}

// AddTrack appends a track to the playlist. A track with the same catalog id
// already in the list is rejected with ErrDuplicateTrack.
func (s *PlaylistService) AddTrack(ctx context.Context, id string, track models.TrackRef) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	for _, item := range doc.Items {
		if item.CatalogID == track.CatalogID {
			return fmt.Errorf("%w: %s", ErrDuplicateTrack, track.CatalogID)
		}
	}

	items := append(doc.Items, track)
	return s.store.Patch(ctx, store.CollectionPlaylists, id, map[string]any{
		"items":      items,
		"modifiedAt": models.NowMillis(),
	})
}

// RemoveTrack removes the track with the given catalog id from the playlist.
// A track id not present leaves the list unchanged and reports success.
func (s *PlaylistService) RemoveTrack(ctx context.Context, id, trackID string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	filtered := make([]models.TrackRef, 0, len(doc.Items))
	for _, item := range doc.Items {
		if item.CatalogID != trackID {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) == len(doc.Items) {
		return nil
	}

	return s.store.Patch(ctx, store.CollectionPlaylists, id, map[string]any{
		"items":      filtered,
		"modifiedAt": models.NowMillis(),
	})
}

// Delete removes the playlist. Idempotent.
func (s *PlaylistService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, store.CollectionPlaylists, id)
}

// LoadIntoQueue copies every playlist item into the play queue in list order
// with increasing explicit order keys and returns the number admitted. The
// load is not atomic: a failure partway through leaves the entries already
// admitted in place and returns the partial count with the error.
func (s *PlaylistService) LoadIntoQueue(ctx context.Context, id string) (int, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(doc.Items) == 0 {
		return 0, ErrEmptyPlaylist
	}

	base, err := s.queue.nextOrder(ctx)
	if err != nil {
		return 0, err
	}

	admitted := 0
	for i, track := range doc.Items {
		order := base + float64(i)
		if _, err := s.queue.Admit(ctx, track, models.RequestKindFree, &order); err != nil {
			return admitted, fmt.Errorf("failed to admit playlist item %d: %w", i, err)
		}
		admitted++
	}
	return admitted, nil
}
