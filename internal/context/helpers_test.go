package ctxengine_test

import (
	"context"
	"errors"
	"fmt"

	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/pkg/message"
)

var errBoom = errors.New("boom")

// fixedCostTokenizer charges a fixed token cost for any non-empty text.
// Truncate is a pass-through; tests that exercise truncation use a real
// CharTokenizer instead.
type fixedCostTokenizer struct {
	cost int
}

func (t fixedCostTokenizer) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return t.cost
}

func (t fixedCostTokenizer) Truncate(text string, _ int) string { return text }

// mockIntrospector implements ctxengine.Introspector.
type mockIntrospector struct {
	info  ctxengine.ModelInfo
	err   error
	calls int
}

func (m *mockIntrospector) Show(_ context.Context, _ string) (ctxengine.ModelInfo, error) {
	m.calls++
	return m.info, m.err
}

// mockCatalog implements ctxengine.Catalog.
type mockCatalog struct {
	entries map[string]ctxengine.CatalogEntry
	err     error
	calls   int
}

func (m *mockCatalog) ModelWindow(_ context.Context, model string) (ctxengine.CatalogEntry, error) {
	m.calls++
	if m.err != nil {
		return ctxengine.CatalogEntry{}, m.err
	}
	entry, ok := m.entries[model]
	if !ok {
		return ctxengine.CatalogEntry{}, errors.New("catalog: model not found")
	}
	return entry, nil
}

// mockMemory implements ctxengine.MemorySource.
type mockMemory struct {
	profile     string
	profileErr  error
	hits        []ctxengine.MemoryHit
	searchErr   error
	searchCalls int
}

func (m *mockMemory) Profile(_ context.Context) (string, error) {
	return m.profile, m.profileErr
}

func (m *mockMemory) SearchRelevant(_ context.Context, _ string, _ int, _ float64) ([]ctxengine.MemoryHit, error) {
	m.searchCalls++
	return m.hits, m.searchErr
}

// mockSummaries implements ctxengine.SummarySource.
type mockSummaries struct {
	summary string
	err     error
}

func (m *mockSummaries) Summary(_ context.Context, _ string) (string, error) {
	return m.summary, m.err
}

// mockCompactor implements ctxengine.Compactor.
type mockCompactor struct {
	outcome ctxengine.CompactionOutcome
	err     error
	calls   int
	lastReq ctxengine.CompactRequest
}

func (m *mockCompactor) Compact(_ context.Context, req ctxengine.CompactRequest) (ctxengine.CompactionOutcome, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return ctxengine.CompactionOutcome{}, m.err
	}
	return m.outcome, nil
}

// makeTestMessages creates n alternating user/assistant messages.
func makeTestMessages(n int) []message.Message {
	msgs := make([]message.Message, n)
	for i := range msgs {
		role := message.RoleUser
		if i%2 == 1 {
			role = message.RoleAssistant
		}
		msgs[i] = message.Message{Role: role, Content: fmt.Sprintf("msg-%d", i)}
	}
	return msgs
}
