package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/trackdeck/backend/internal/broker"
	"github.com/trackdeck/backend/internal/database"
)

type testDoc struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Extra string `json:"extra,omitempty"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return New(db, broker.New())
}

func TestCreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.Create(ctx, CollectionPlayQueue, testDoc{Name: "one", Rank: 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned empty id")
	}

	var got testDoc
	if err := st.Get(ctx, CollectionPlayQueue, id, &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("ID = %q, want %q", got.ID, id)
	}
	if got.Name != "one" || got.Rank != 1 {
		t.Errorf("doc = %+v, want name=one rank=1", got)
	}
}

func TestGetNotFound(t *testing.T) {
	st := newTestStore(t)

	var got testDoc
	err := st.Get(context.Background(), CollectionPlayQueue, "nonexistent", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestGetWrongCollection(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.Create(ctx, CollectionPlayQueue, testDoc{Name: "one"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var got testDoc
	err = st.Get(ctx, CollectionPlayHistory, id, &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestPatchUpdatesOnlyGivenFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.Create(ctx, CollectionPlayQueue, testDoc{Name: "one", Rank: 1, Extra: "keep"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := st.Patch(ctx, CollectionPlayQueue, id, map[string]any{"rank": 5}); err != nil {
		t.Fatalf("Patch failed: %v", err)
	}

	var got testDoc
	if err := st.Get(ctx, CollectionPlayQueue, id, &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Rank != 5 {
		t.Errorf("Rank = %d, want 5", got.Rank)
	}
	if got.Name != "one" || got.Extra != "keep" {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestPatchNotFound(t *testing.T) {
	st := newTestStore(t)

	err := st.Patch(context.Background(), CollectionPlayQueue, "nonexistent", map[string]any{"rank": 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Patch error = %v, want ErrNotFound", err)
	}
}

func TestPatchWhere(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.Create(ctx, CollectionRequestsFree, testDoc{Name: "pending", Rank: 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Condition met: patch applies
	applied, err := st.PatchWhere(ctx, CollectionRequestsFree, id, "name", "pending", map[string]any{"name": "approved"})
	if err != nil {
		t.Fatalf("PatchWhere failed: %v", err)
	}
	if !applied {
		t.Error("applied = false, want true")
	}

	// Condition no longer met: patch is a no-op
	applied, err = st.PatchWhere(ctx, CollectionRequestsFree, id, "name", "pending", map[string]any{"name": "rejected"})
	if err != nil {
		t.Fatalf("PatchWhere failed: %v", err)
	}
	if applied {
		t.Error("applied = true, want false")
	}

	var got testDoc
	if err := st.Get(ctx, CollectionRequestsFree, id, &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "approved" {
		t.Errorf("Name = %q, want approved", got.Name)
	}
}

func TestPatchWhereMissingDoc(t *testing.T) {
	st := newTestStore(t)

	applied, err := st.PatchWhere(context.Background(), CollectionRequestsFree, "nonexistent", "name", "pending", map[string]any{"name": "approved"})
	if err != nil {
		t.Fatalf("PatchWhere failed: %v", err)
	}
	if applied {
		t.Error("applied = true for missing doc, want false")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.Create(ctx, CollectionPlayQueue, testDoc{Name: "one"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := st.Delete(ctx, CollectionPlayQueue, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := st.Delete(ctx, CollectionPlayQueue, id); err != nil {
		t.Errorf("second Delete = %v, want nil", err)
	}

	var got testDoc
	if err := st.Get(ctx, CollectionPlayQueue, id, &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestListOrdering(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, doc := range []testDoc{
		{Name: "c", Rank: 3},
		{Name: "a", Rank: 1},
		{Name: "b", Rank: 2},
	} {
		if _, err := st.Create(ctx, CollectionPlayQueue, doc); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	var asc []testDoc
	if err := st.List(ctx, CollectionPlayQueue, "rank", false, &asc); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(asc) != 3 {
		t.Fatalf("len = %d, want 3", len(asc))
	}
	for i, want := range []string{"a", "b", "c"} {
		if asc[i].Name != want {
			t.Errorf("asc[%d].Name = %q, want %q", i, asc[i].Name, want)
		}
	}

	var desc []testDoc
	if err := st.List(ctx, CollectionPlayQueue, "rank", true, &desc); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for i, want := range []string{"c", "b", "a"} {
		if desc[i].Name != want {
			t.Errorf("desc[%d].Name = %q, want %q", i, desc[i].Name, want)
		}
	}
}

func TestListRejectsBadOrderField(t *testing.T) {
	st := newTestStore(t)

	var out []testDoc
	err := st.List(context.Background(), CollectionPlayQueue, "rank; DROP TABLE records", false, &out)
	if err == nil {
		t.Error("List accepted malicious order field")
	}
}

func TestFindWhere(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, doc := range []testDoc{
		{Name: "match", Rank: 1},
		{Name: "match", Rank: 2},
		{Name: "other", Rank: 3},
	} {
		if _, err := st.Create(ctx, CollectionPremiumCodes, doc); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	var out []testDoc
	if err := st.FindWhere(ctx, CollectionPremiumCodes, "name", "match", &out); err != nil {
		t.Fatalf("FindWhere failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len = %d, want 2", len(out))
	}
}

func TestClearAndCount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := st.Create(ctx, CollectionPlayHistory, testDoc{Rank: i}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	// A second collection must not be touched by Clear
	if _, err := st.Create(ctx, CollectionPlayQueue, testDoc{Rank: 0}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := st.Count(ctx, CollectionPlayHistory)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	if err := st.Clear(ctx, CollectionPlayHistory); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	n, err = st.Count(ctx, CollectionPlayHistory)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Count after clear = %d, want 0", n)
	}

	n, err = st.Count(ctx, CollectionPlayQueue)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("other collection Count = %d, want 1", n)
	}
}

func TestWatchSignalsOnMutation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ch, stop := st.Watch(CollectionPlayQueue)
	defer stop()

	id, err := st.Create(ctx, CollectionPlayQueue, testDoc{Name: "one"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	select {
	case <-ch:
	default:
		t.Fatal("no signal after Create")
	}

	if err := st.Delete(ctx, CollectionPlayQueue, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	select {
	case <-ch:
	default:
		t.Fatal("no signal after Delete")
	}

	// Deleting an absent doc must not signal
	if err := st.Delete(ctx, CollectionPlayQueue, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	select {
	case <-ch:
		t.Fatal("unexpected signal after no-op delete")
	default:
	}
}
