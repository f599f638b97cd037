package services

import (
	"context"
	"fmt"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/store"
)

// RequestService is the request ledger. It owns the two request streams
// (free and premium) and the pending → approved/rejected state machine.
type RequestService struct {
	store *store.Store
	codes *CodeService
}

// NewRequestService creates a RequestService backed by the given store and
// code registry.
func NewRequestService(st *store.Store, codes *CodeService) *RequestService {
	return &RequestService{store: st, codes: codes}
}

// requestCollection maps a request kind to its store collection.
func requestCollection(kind string) (string, error) {
	switch kind {
	case models.RequestKindFree:
		return store.CollectionRequestsFree, nil
	case models.RequestKindPremium:
		return store.CollectionRequestsPremium, nil
	default:
		return "", fmt.Errorf("%w: unknown request kind %q", ErrValidation, kind)
	}
}

// Submit creates a pending request. Premium submissions must present a valid
// unused code; the code is consumed as part of the same submission attempt.
func (s *RequestService) Submit(ctx context.Context, kind string, track models.TrackRef, code string) (string, error) {
	collection, err := requestCollection(kind)
	if err != nil {
		return "", err
	}

	doc := models.RequestDoc{
		Track:       track,
		SubmittedAt: models.NowMillis(),
		State:       models.RequestStatePending,
	}

	if kind == models.RequestKindPremium {
		ok, err := s.codes.ValidateAndReserve(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to redeem code: %w", err)
		}
		if !ok {
			return "", ErrInvalidCode
		}
		doc.Code = NormalizeCode(code)
	}

	id, err := s.store.Create(ctx, collection, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	return id, nil
}

// Get returns a single request by id.
func (s *RequestService) Get(ctx context.Context, kind, id string) (models.RequestDoc, error) {
	collection, err := requestCollection(kind)
	if err != nil {
		return models.RequestDoc{}, err
	}

	var doc models.RequestDoc
	if err := s.store.Get(ctx, collection, id, &doc); err != nil {
		return models.RequestDoc{}, err
	}
	return doc, nil
}

// List returns all requests of the kind ordered by submission time ascending.
func (s *RequestService) List(ctx context.Context, kind string) ([]models.RequestDoc, error) {
	collection, err := requestCollection(kind)
	if err != nil {
		return nil, err
	}

	var docs []models.RequestDoc
	if err := s.store.List(ctx, collection, "submittedAt", false, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Subscribe delivers full ordered snapshots of the request stream: one
// immediately, then one per change, until ctx is cancelled.
func (s *RequestService) Subscribe(ctx context.Context, kind string) (<-chan []models.RequestDoc, error) {
	collection, err := requestCollection(kind)
	if err != nil {
		return nil, err
	}
	return subscribeSnapshots[models.RequestDoc](ctx, s.store, collection, "submittedAt", false), nil
}

// Transition moves a pending request to approved or rejected. A request that
// already left pending is left untouched and reported with transitioned=false
// and a nil error, so double-clicks and re-delivered updates are harmless.
// The write is conditional on state=pending, so two concurrent transitions
// can never both succeed.
func (s *RequestService) Transition(ctx context.Context, kind, id, newState string) (bool, error) {
	collection, err := requestCollection(kind)
	if err != nil {
		return false, err
	}

	if newState != models.RequestStateApproved && newState != models.RequestStateRejected {
		return false, fmt.Errorf("%w: invalid target state %q", ErrValidation, newState)
	}

	applied, err := s.store.PatchWhere(ctx, collection, id,
		"state", models.RequestStatePending,
		map[string]any{"state": newState},
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition request: %w", err)
	}
	if applied {
		return true, nil
	}

	// Not applied: either the request is already resolved (no-op) or gone.
	var doc models.RequestDoc
	if err := s.store.Get(ctx, collection, id, &doc); err != nil {
		return false, err
	}
	return false, nil
}

// Remove hard-deletes a request regardless of state. Administrative cleanup;
// idempotent.
func (s *RequestService) Remove(ctx context.Context, kind, id string) error {
	collection, err := requestCollection(kind)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, collection, id)
}

// Clear deletes every request of the kind.
func (s *RequestService) Clear(ctx context.Context, kind string) error {
	collection, err := requestCollection(kind)
	if err != nil {
		return err
	}
	return s.store.Clear(ctx, collection)
}
