package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/tyler-smith/go-bip39/wordlists"

	"github.com/trackdeck/backend/internal/models"
	"github.com/trackdeck/backend/internal/store"
)

// wordlist is the BIP39 English wordlist (2048 words). Two words plus a
// number give 2048 × 2048 × 100 = 419 million combinations.
var wordlist = wordlists.English

// EventKeyService manages the human-readable access key guests use to join
// the event. The key follows the pattern "word-word-number" (e.g.
// "apple-river-42") and is generated once, then persisted in the settings
// collection so it survives restarts.
type EventKeyService struct {
	store *store.Store
	rng   *rand.Rand
}

// NewEventKeyService creates an EventKeyService with its own random source.
func NewEventKeyService(st *store.Store) *EventKeyService {
	return &EventKeyService{
		store: st,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Current returns the event access key, generating and persisting one on
// first use.
func (s *EventKeyService) Current(ctx context.Context) (string, error) {
	var settings []models.SettingsDoc
	if err := s.store.List(ctx, store.CollectionSettings, "eventKey", false, &settings); err != nil {
		return "", fmt.Errorf("failed to read settings: %w", err)
	}
	if len(settings) > 0 && settings[0].EventKey != "" {
		return settings[0].EventKey, nil
	}

	key := s.generate()
	if _, err := s.store.Create(ctx, store.CollectionSettings, models.SettingsDoc{EventKey: key}); err != nil {
		return "", fmt.Errorf("failed to persist event key: %w", err)
	}
	return key, nil
}

// Matches reports whether the presented key equals the current event key.
// Comparison is case-insensitive and whitespace-tolerant.
func (s *EventKeyService) Matches(ctx context.Context, presented string) (bool, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	normalize := func(k string) string { return strings.ToLower(strings.TrimSpace(k)) }
	return normalize(presented) == normalize(current), nil
}

// generate creates a "word-word-number" key.
func (s *EventKeyService) generate() string {
	word1 := wordlist[s.rng.Intn(len(wordlist))]
	word2 := wordlist[s.rng.Intn(len(wordlist))]
	num := s.rng.Intn(100)
	return fmt.Sprintf("%s-%s-%d", word1, word2, num)
}
