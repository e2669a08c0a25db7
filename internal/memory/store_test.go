package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *ContextStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "mem", "context.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIndexAndQuery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Index(ctx, "src/parser.go", "package parser implements tokenizing"); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := store.Index(ctx, "docs/readme.md", "getting started with widgets"); err != nil {
		t.Fatalf("Index: %v", err)
	}

	entries, err := store.Query(ctx, "tokenizing", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Path != "src/parser.go" {
		t.Errorf("Path = %q", entries[0].Path)
	}
}

func TestIndexReplacesExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Index(ctx, "a.txt", "old content"); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := store.Index(ctx, "a.txt", "new content"); err != nil {
		t.Fatalf("Index: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}

	entries, err := store.Query(ctx, "content", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "new content" {
		t.Errorf("entries = %+v, want single updated document", entries)
	}
}

func TestQueryLimitAndMiss(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := store.Index(ctx, p, "shared body"); err != nil {
			t.Fatalf("Index: %v", err)
		}
	}

	entries, err := store.Query(ctx, "shared", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}

	entries, err = store.Query(ctx, "absent", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestQueryEscapesLikeWildcards(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Index(ctx, "pct.txt", "contains a literal % sign"); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := store.Index(ctx, "plain.txt", "nothing special"); err != nil {
		t.Fatalf("Index: %v", err)
	}

	entries, err := store.Query(ctx, "literal %", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "pct.txt" {
		t.Errorf("entries = %+v, want only pct.txt", entries)
	}
}
