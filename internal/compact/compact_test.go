package compact_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/braidhq/braid/internal/compact"
	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/pkg/message"
)

// mockSummarizer implements compact.Summarizer.
type mockSummarizer struct {
	result     string
	err        error
	calls      int
	lastModel  string
	lastPrompt string
}

func (m *mockSummarizer) Summarize(_ context.Context, model, prompt string) (string, error) {
	m.calls++
	m.lastModel = model
	m.lastPrompt = prompt
	return m.result, m.err
}

// mockStore implements compact.SummaryStore.
type mockStore struct {
	saved   map[string]string
	saveErr error
}

func (m *mockStore) Summary(_ context.Context, id string) (string, error) {
	return m.saved[id], nil
}

func (m *mockStore) SaveSummary(_ context.Context, id, summary string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[string]string)
	}
	m.saved[id] = summary
	return nil
}

func testRequest() ctxengine.CompactRequest {
	return ctxengine.CompactRequest{
		ConversationID:  "conv-1",
		Messages:        []message.Message{{Role: message.RoleUser, Content: "we chose postgres over sqlite"}},
		ExistingSummary: "earlier they discussed storage options",
		Model:           "llama3:8b",
		TargetTokens:    300,
	}
}

func TestService_Compact(t *testing.T) {
	t.Parallel()

	summarizer := &mockSummarizer{result: "They chose postgres after discussing storage options."}
	store := &mockStore{}
	svc := compact.NewService(summarizer, store, ctxengine.NewCharTokenizer(0), nil)

	outcome, err := svc.Compact(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}

	if outcome.Summary != summarizer.result {
		t.Errorf("Summary = %q", outcome.Summary)
	}
	if outcome.TokensBefore <= outcome.TokensAfter {
		t.Errorf("TokensBefore (%d) should exceed TokensAfter (%d)", outcome.TokensBefore, outcome.TokensAfter)
	}
	if store.saved["conv-1"] != summarizer.result {
		t.Error("summary should be persisted for the conversation")
	}
	if summarizer.lastModel != "llama3:8b" {
		t.Errorf("model = %q, want llama3:8b", summarizer.lastModel)
	}
	if !strings.Contains(summarizer.lastPrompt, "earlier they discussed storage options") {
		t.Error("summarization prompt should include the existing summary")
	}
	if !strings.Contains(summarizer.lastPrompt, "user: we chose postgres over sqlite") {
		t.Error("summarization prompt should include the dropped messages")
	}
}

func TestService_CompactSummarizerError(t *testing.T) {
	t.Parallel()

	svc := compact.NewService(&mockSummarizer{err: errors.New("model offline")}, &mockStore{},
		ctxengine.NewCharTokenizer(0), nil)

	_, err := svc.Compact(context.Background(), testRequest())
	if !errors.Is(err, compact.ErrCompactionFailed) {
		t.Fatalf("Compact error = %v, want ErrCompactionFailed", err)
	}
}

func TestService_CompactTruncatesToTarget(t *testing.T) {
	t.Parallel()

	tok := ctxengine.NewCharTokenizer(0)
	long := strings.Repeat("summary content ", 300) // far over 300 tokens
	svc := compact.NewService(&mockSummarizer{result: long}, nil, tok, nil)

	outcome, err := svc.Compact(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if outcome.TokensAfter > 300 {
		t.Errorf("TokensAfter = %d, want <= target 300", outcome.TokensAfter)
	}
}

func TestService_CompactPersistFailureIsSoft(t *testing.T) {
	t.Parallel()

	svc := compact.NewService(&mockSummarizer{result: "short summary"},
		&mockStore{saveErr: errors.New("disk full")}, ctxengine.NewCharTokenizer(0), nil)

	outcome, err := svc.Compact(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Compact should succeed despite persistence failure, got %v", err)
	}
	if outcome.Summary != "short summary" {
		t.Errorf("Summary = %q", outcome.Summary)
	}
}

func TestService_CompactEmptyInput(t *testing.T) {
	t.Parallel()

	svc := compact.NewService(&mockSummarizer{result: "x"}, nil, ctxengine.NewCharTokenizer(0), nil)

	req := testRequest()
	req.Messages = nil
	if _, err := svc.Compact(context.Background(), req); !errors.Is(err, compact.ErrCompactionFailed) {
		t.Fatalf("Compact with no messages = %v, want ErrCompactionFailed", err)
	}
}
