package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/store"
)

const (
	codeLength       = 6
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultBatchSize = 10
)

// CodeService is the premium code registry. Codes are stored uppercase and
// consumed at most once by a successful premium submission.
type CodeService struct {
	store *store.Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCodeService creates a CodeService with its own random source.
func NewCodeService(st *store.Store) *CodeService {
	return &CodeService{
		store: st,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NormalizeCode uppercases and trims a code for storage and comparison.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create persists a new unused code. The value must be exactly six
// characters; duplicates are rejected case-insensitively.
func (s *CodeService) Create(ctx context.Context, code string) (models.CodeDoc, error) {
	normalized := NormalizeCode(code)
	if len(normalized) != codeLength {
		return models.CodeDoc{}, fmt.Errorf("%w: code must be exactly %d characters", ErrValidation, codeLength)
	}

	var existing []models.CodeDoc
	if err := s.store.FindWhere(ctx, store.CollectionPremiumCodes, "value", normalized, &existing); err != nil {
		return models.CodeDoc{}, fmt.Errorf("failed to check for duplicate code: %w", err)
	}
	if len(existing) > 0 {
		return models.CodeDoc{}, fmt.Errorf("%w: %s", ErrDuplicateCode, normalized)
	}

	doc := models.CodeDoc{
		Value:     normalized,
		CreatedAt: models.NowMillis(),
	}
	id, err := s.store.Create(ctx, store.CollectionPremiumCodes, doc)
	if err != nil {
		return models.CodeDoc{}, fmt.Errorf("failed to create code: %w", err)
	}
	doc.ID = id
	return doc, nil
}

// CreateBatch generates n random codes (default 10) and creates each one.
// Codes that collide with existing values are skipped; the created subset is
// returned. A store failure stops the batch and returns what was created so
// far along with the error.
func (s *CodeService) CreateBatch(ctx context.Context, n int) ([]models.CodeDoc, error) {
	if n <= 0 {
		n = defaultBatchSize
	}

	created := make([]models.CodeDoc, 0, n)
	for i := 0; i < n; i++ {
		doc, err := s.Create(ctx, s.randomCode())
		if err != nil {
			if isDuplicateOrInvalid(err) {
				continue
			}
			return created, err
		}
		created = append(created, doc)
	}
	return created, nil
}

func isDuplicateOrInvalid(err error) bool {
	return errors.Is(err, ErrDuplicateCode) || errors.Is(err, ErrValidation)
}

// ValidateAndReserve looks up the code and, if present and unused, marks it
// used. Returns false for unknown or already-used codes.
//
// This is a check-then-act sequence: two overlapping calls for the same code
// can both observe it unused before either write lands. The race window is
// accepted (usedAt still ends with a single last-write-wins value) rather
// than closed with a conditional write; see DESIGN.md.
func (s *CodeService) ValidateAndReserve(ctx context.Context, code string) (bool, error) {
	normalized := NormalizeCode(code)

	var matches []models.CodeDoc
	if err := s.store.FindWhere(ctx, store.CollectionPremiumCodes, "value", normalized, &matches); err != nil {
		return false, fmt.Errorf("failed to look up code: %w", err)
	}
	if len(matches) == 0 {
		return false, nil
	}

	doc := matches[0]
	if doc.Used() {
		return false, nil
	}

	err := s.store.Patch(ctx, store.CollectionPremiumCodes, doc.ID, map[string]any{
		"usedAt": models.NowMillis(),
	})
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between lookup and mark; treat as invalid.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to mark code used: %w", err)
	}
	return true, nil
}

// List returns all codes, newest first.
func (s *CodeService) List(ctx context.Context) ([]models.CodeDoc, error) {
	var docs []models.CodeDoc
	if err := s.store.List(ctx, store.CollectionPremiumCodes, "createdAt", true, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Subscribe delivers full snapshots of the code collection, newest first.
func (s *CodeService) Subscribe(ctx context.Context) <-chan []models.CodeDoc {
	return subscribeSnapshots[models.CodeDoc](ctx, s.store, store.CollectionPremiumCodes, "createdAt", true)
}

// Remove deletes a code by id. Idempotent.
func (s *CodeService) Remove(ctx context.Context, id string) error {
	return s.store.Delete(ctx, store.CollectionPremiumCodes, id)
}

// randomCode returns a random uppercase alphanumeric code.
func (s *CodeService) randomCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[s.rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}
