// Package compact folds overflowed conversation history into a running
// per-conversation summary using an injected summarization model.
package compact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/pkg/message"
)

// ErrCompactionFailed indicates that compaction could not produce a summary.
var ErrCompactionFailed = errors.New("compact: compaction failed")

// Summarizer produces a condensed summary from a rendered prompt.
// The concrete implementation typically calls an LLM.
type Summarizer interface {
	Summarize(ctx context.Context, model, prompt string) (string, error)
}

// SummaryStore persists per-conversation running summaries.
type SummaryStore interface {
	Summary(ctx context.Context, conversationID string) (string, error)
	SaveSummary(ctx context.Context, conversationID, summary string) error
}

// Service implements ctxengine.Compactor: it summarizes the messages
// that did not fit the history window, merges them with the existing
// summary, truncates the result to the target budget, and persists it.
type Service struct {
	summarizer Summarizer
	store      SummaryStore
	tok        ctxengine.Tokenizer
	logger     *slog.Logger
}

// Compile-time interface guard.
var _ ctxengine.Compactor = (*Service)(nil)

// NewService creates a compaction Service. The store may be nil, in which
// case summaries are returned to the caller but not persisted.
func NewService(summarizer Summarizer, store SummaryStore, tok ctxengine.Tokenizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		summarizer: summarizer,
		store:      store,
		tok:        tok,
		logger:     logger,
	}
}

// Compact implements ctxengine.Compactor.
func (s *Service) Compact(ctx context.Context, req ctxengine.CompactRequest) (ctxengine.CompactionOutcome, error) {
	if s.summarizer == nil {
		return ctxengine.CompactionOutcome{}, fmt.Errorf("%w: no summarizer configured", ErrCompactionFailed)
	}
	if len(req.Messages) == 0 {
		return ctxengine.CompactionOutcome{}, fmt.Errorf("%w: nothing to compact", ErrCompactionFailed)
	}

	tokensBefore := s.tok.Estimate(req.ExistingSummary)
	for _, m := range req.Messages {
		tokensBefore += s.tok.Estimate(m.Content)
	}

	prompt := renderSummaryPrompt(req.Messages, req.ExistingSummary, req.TargetTokens)

	summary, err := s.summarizer.Summarize(ctx, req.Model, prompt)
	if err != nil {
		return ctxengine.CompactionOutcome{}, fmt.Errorf("%w: %w", ErrCompactionFailed, err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ctxengine.CompactionOutcome{}, fmt.Errorf("%w: empty summary", ErrCompactionFailed)
	}

	if req.TargetTokens > 0 && s.tok.Estimate(summary) > req.TargetTokens {
		summary = s.tok.Truncate(summary, req.TargetTokens)
	}

	if s.store != nil && req.ConversationID != "" {
		if err := s.store.SaveSummary(ctx, req.ConversationID, summary); err != nil {
			// The summary is still usable for this build; persistence
			// failing only loses it for the next one.
			s.logger.Warn("compact: summary persistence failed",
				"conversation", req.ConversationID, "error", err)
		}
	}

	outcome := ctxengine.CompactionOutcome{
		Summary:      summary,
		TokensBefore: tokensBefore,
		TokensAfter:  s.tok.Estimate(summary),
	}

	s.logger.Info("compact: history compacted",
		"conversation", req.ConversationID,
		"messages", len(req.Messages),
		"tokens_before", outcome.TokensBefore,
		"tokens_after", outcome.TokensAfter)

	return outcome, nil
}

// renderSummaryPrompt builds the summarization request. The existing
// summary is included so new information merges instead of replacing it.
func renderSummaryPrompt(msgs []message.Message, existingSummary string, targetTokens int) string {
	var b strings.Builder

	b.WriteString("Summarize the following conversation excerpt. Keep decisions, facts, names, and open questions.")
	if targetTokens > 0 {
		fmt.Fprintf(&b, " Stay under roughly %d tokens.", targetTokens)
	}
	b.WriteString("\n\n")

	if existingSummary != "" {
		b.WriteString("Existing summary of even earlier messages (merge, do not discard):\n")
		b.WriteString(existingSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("Conversation:\n")
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	return b.String()
}
