package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/braidhq/braid/modules/store/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "braid.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_CatalogRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.ModelWindow(ctx, "qwen3:14b"); !errors.Is(err, sqlite.ErrModelNotFound) {
		t.Fatalf("ModelWindow on empty catalog = %v, want ErrModelNotFound", err)
	}

	if err := store.UpsertModel(ctx, "qwen3:14b", 40960, 16384); err != nil {
		t.Fatalf("UpsertModel: %v", err)
	}

	entry, err := store.ModelWindow(ctx, "qwen3:14b")
	if err != nil {
		t.Fatalf("ModelWindow: %v", err)
	}
	if entry.ContextWindow != 40960 || entry.RecommendedCtx != 16384 {
		t.Errorf("entry = %+v, want {40960 16384}", entry)
	}

	// Upsert replaces, never duplicates.
	if err := store.UpsertModel(ctx, "qwen3:14b", 32768, 8192); err != nil {
		t.Fatalf("UpsertModel (refresh): %v", err)
	}
	models, err := store.Models(ctx)
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	if len(models) != 1 || models[0].ContextWindow != 32768 {
		t.Errorf("Models = %+v, want one refreshed entry", models)
	}
}

func TestStore_ProfileRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	got, err := store.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile on empty store: %v", err)
	}
	if got != "" {
		t.Errorf("Profile = %q, want empty", got)
	}

	if err := store.SetProfile(ctx, "ACME GmbH, Hamburg"); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	if err := store.SetProfile(ctx, "ACME GmbH, Berlin"); err != nil {
		t.Fatalf("SetProfile (update): %v", err)
	}

	got, err = store.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got != "ACME GmbH, Berlin" {
		t.Errorf("Profile = %q, want the updated text", got)
	}
}

func TestStore_SearchRelevant(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	memories := []string{
		"the customer prefers answers in German",
		"deployments happen on Friday afternoons",
		"the staging database lives on host stg-db-01",
	}
	for _, m := range memories {
		if err := store.AddMemory(ctx, m); err != nil {
			t.Fatalf("AddMemory: %v", err)
		}
	}

	hits, err := store.SearchRelevant(ctx, "when do deployments happen?", 3, 0)
	if err != nil {
		t.Fatalf("SearchRelevant: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Content != "deployments happen on Friday afternoons" {
		t.Errorf("top hit = %q", hits[0].Content)
	}
	for _, h := range hits {
		if h.Score < 0 || h.Score >= 1 {
			t.Errorf("score %v outside [0,1)", h.Score)
		}
	}
}

func TestStore_SearchRelevantHostileQuery(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddMemory(ctx, "something searchable"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	// Quotes, operators, and stray punctuation must not produce FTS5
	// syntax errors.
	for _, query := range []string{`"unbalanced`, "a-b NOT (c:d)", "???", ""} {
		if _, err := store.SearchRelevant(ctx, query, 3, 0); err != nil {
			t.Errorf("SearchRelevant(%q) = %v, want nil error", query, err)
		}
	}
}

func TestStore_SummaryRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	got, err := store.Summary(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Summary on empty store: %v", err)
	}
	if got != "" {
		t.Errorf("Summary = %q, want empty", got)
	}

	if err := store.SaveSummary(ctx, "conv-1", "they discussed budgets"); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	if err := store.SaveSummary(ctx, "conv-1", "they discussed budgets and models"); err != nil {
		t.Fatalf("SaveSummary (replace): %v", err)
	}

	got, err = store.Summary(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got != "they discussed budgets and models" {
		t.Errorf("Summary = %q, want the replaced text", got)
	}

	// Summaries are isolated per conversation.
	other, err := store.Summary(ctx, "conv-2")
	if err != nil {
		t.Fatalf("Summary (other conversation): %v", err)
	}
	if other != "" {
		t.Errorf("Summary(conv-2) = %q, want empty", other)
	}
}
