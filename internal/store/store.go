// Package store implements a small document store on top of SQLite: named
// collections of JSON documents with create/get/patch/delete, ordered
// snapshot queries, equality lookups, and a per-collection change signal for
// live views. Writes publish their collection on the broker; consumers
// re-read the full ordered snapshot and treat each delivery as authoritative.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/trackdeck/backend/internal/broker"
)

// Collection names. All application state lives in these.
const (
	CollectionRequestsFree    = "requests_free"
	CollectionRequestsPremium = "requests_premium"
	CollectionPlayQueue       = "play_queue"
	CollectionPlayHistory     = "play_history"
	CollectionPremiumCodes    = "premium_codes"
	CollectionPlaylists       = "dj_playlists"
	CollectionSettings        = "settings"
)

// ErrNotFound is returned when a document does not exist. Callers performing
// idempotent operations treat it as benign.
var ErrNotFound = errors.New("record not found")

// Store provides document operations over named collections.
type Store struct {
	db     *sql.DB
	broker *broker.Broker
}

// New creates a Store over the given database and broker.
func New(db *sql.DB, b *broker.Broker) *Store {
	return &Store{db: db, broker: b}
}

// Create inserts doc as a new document and returns its assigned id.
func (s *Store) Create(ctx context.Context, collection string, doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO records (collection, id, data) VALUES (?, ?, ?)`,
		collection, id, string(data),
	); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	s.broker.Publish(collection)
	return id, nil
}

// Get unmarshals the document with the given id into out. The document id is
// injected into the payload so callers always see it.
func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json_set(data, '$.id', id) FROM records WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}

// Patch merges the given fields into the document in a single statement.
// Only the provided fields are touched, so concurrent writers updating other
// fields are never clobbered. Returns ErrNotFound when the document is gone.
func (s *Store) Patch(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET data = json_patch(data, ?) WHERE collection = ? AND id = ?`,
		string(patch), collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to patch document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read patch result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.broker.Publish(collection)
	return nil
}

// PatchWhere merges fields into the document only when the given field
// currently equals expected. SQLite executes this as one statement, so it is
// a true conditional write. Returns (false, nil) when the condition did not
// hold or the document is absent; callers disambiguate with Get if they care.
func (s *Store) PatchWhere(ctx context.Context, collection, id, condField string, expected any, fields map[string]any) (bool, error) {
	if err := validateFieldName(condField); err != nil {
		return false, err
	}

	patch, err := json.Marshal(fields)
	if err != nil {
		return false, fmt.Errorf("failed to marshal patch: %w", err)
	}

	query := fmt.Sprintf(
		`UPDATE records SET data = json_patch(data, ?)
		 WHERE collection = ? AND id = ? AND json_extract(data, '$.%s') = ?`,
		condField,
	)
	res, err := s.db.ExecContext(ctx, query, string(patch), collection, id, expected)
	if err != nil {
		return false, fmt.Errorf("failed to patch document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read patch result: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	s.broker.Publish(collection)
	return true, nil
}

// Delete removes the document. Deleting an absent document is a no-op, not an
// error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		s.broker.Publish(collection)
	}
	return nil
}

// List unmarshals the full collection snapshot into out (a pointer to a
// slice), ordered by the given document field. Ties are broken by document id
// so ordering is deterministic.
func (s *Store) List(ctx context.Context, collection, orderField string, desc bool, out any) error {
	if err := validateFieldName(orderField); err != nil {
		return err
	}

	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	// orderField is validated above; it is never caller-supplied input.
	query := fmt.Sprintf(
		`SELECT json_set(data, '$.id', id) FROM records
		 WHERE collection = ?
		 ORDER BY json_extract(data, '$.%s') %s, id ASC`,
		orderField, dir,
	)

	return s.queryDocs(ctx, query, out, collection)
}

// FindWhere unmarshals all documents whose field equals value into out.
func (s *Store) FindWhere(ctx context.Context, collection, field string, value any, out any) error {
	if err := validateFieldName(field); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`SELECT json_set(data, '$.id', id) FROM records
		 WHERE collection = ? AND json_extract(data, '$.%s') = ?
		 ORDER BY id ASC`,
		field,
	)

	return s.queryDocs(ctx, query, out, collection, value)
}

// Clear deletes every document in the collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ?`, collection,
	); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	s.broker.Publish(collection)
	return nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Watch returns a coalescing change-signal channel for the collection and a
// disposer. Every mutation to the collection triggers a signal; consumers
// re-read the snapshot on each one.
func (s *Store) Watch(collection string) (<-chan struct{}, func()) {
	ch := s.broker.Subscribe(collection)
	return ch, func() { s.broker.Unsubscribe(collection, ch) }
}

// queryDocs runs a query returning JSON documents and unmarshals the result
// set into out as a JSON array.
func (s *Store) queryDocs(ctx context.Context, query string, out any, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]json.RawMessage, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate documents: %w", err)
	}

	arr, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to assemble snapshot: %w", err)
	}
	if err := json.Unmarshal(arr, out); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return nil
}

// validateFieldName restricts JSON path segments to simple identifiers since
// they are interpolated into queries.
func validateFieldName(field string) error {
	if field == "" {
		return errors.New("empty field name")
	}
	for _, r := range field {
		ok := r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
		if !ok {
			return fmt.Errorf("invalid field name %q", field)
		}
	}
	if strings.ContainsAny(field[:1], "0123456789") {
		return fmt.Errorf("invalid field name %q", field)
	}
	return nil
}
