package ctxengine

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/braidhq/braid/pkg/message"
)

// tier2MaxSnippets and tier2MinScore bound the Tier-2 memory search.
const (
	tier2MaxSnippets = 3
	tier2MinScore    = 0.5
)

// MemoryHit is one retrieved memory snippet with its similarity score.
type MemoryHit struct {
	Content string
	Score   float64
}

// MemorySource supplies Tier-1 profile and Tier-2 retrieved memories.
type MemorySource interface {
	// Profile returns the static profile text, or "" when none exists.
	Profile(ctx context.Context) (string, error)

	// SearchRelevant returns up to maxResults snippets scoring at least
	// minScore for query, best first.
	SearchRelevant(ctx context.Context, query string, maxResults int, minScore float64) ([]MemoryHit, error)
}

// SummarySource supplies the Tier-3 running summary for a conversation.
type SummarySource interface {
	// Summary returns the stored summary, or "" when none exists.
	Summary(ctx context.Context, conversationID string) (string, error)
}

// CompactRequest asks the compaction collaborator to fold messages that
// did not fit the window into the running summary.
type CompactRequest struct {
	ConversationID  string
	Messages        []message.Message
	ExistingSummary string
	Model           string
	TargetTokens    int
}

// CompactionOutcome is the result of a successful compaction.
type CompactionOutcome struct {
	Summary      string `json:"summary"`
	TokensBefore int    `json:"tokens_before"`
	TokensAfter  int    `json:"tokens_after"`
}

// Compactor summarizes overflowed history.
type Compactor interface {
	Compact(ctx context.Context, req CompactRequest) (CompactionOutcome, error)
}

// TierResult is one context tier after loading: its content, token cost,
// and the collaborator error (if any) it degraded from. A failed tier has
// empty content and zero tokens but keeps Err, so call sites and tests
// can tell "feature absent" from "feature failed" without parsing logs.
type TierResult struct {
	Content string
	Tokens  int
	Err     error
}

// Degraded reports whether the tier failed and fell back to empty.
func (t TierResult) Degraded() bool {
	return t.Err != nil
}

// BuildRequest carries the inputs for one prompt assembly.
type BuildRequest struct {
	Messages       []message.Message
	SystemPrompt   string
	Model          string
	ConversationID string
	RAGContext     string
	UserID         string
}

// TokenBreakdown is the per-tier diagnostic accounting for one build.
type TokenBreakdown struct {
	System          int     `json:"system"`
	Tier1           int     `json:"tier1"`
	Tier2           int     `json:"tier2"`
	Tier3           int     `json:"tier3"`
	RAG             int     `json:"rag"`
	History         int     `json:"history"`
	Total           int     `json:"total"`
	Budget          int     `json:"budget"`
	ResponseReserve int     `json:"response_reserve"`
	Utilization     float64 `json:"utilization"`
	Included        int     `json:"included"`
	Dropped         int     `json:"dropped"`
	Compacted       bool    `json:"compacted"`
}

// BuildResult is the assembled prompt plus its diagnostics.
type BuildResult struct {
	Prompt          string             `json:"prompt"`
	SystemPrompt    string             `json:"system_prompt"`
	Messages        []message.Message  `json:"messages"`
	NumCtx          int                `json:"num_ctx"`
	Compaction      *CompactionOutcome `json:"compaction,omitempty"`
	DroppedMessages int                `json:"dropped_messages"`
	Breakdown       TokenBreakdown     `json:"token_breakdown"`
}

// Assembler orchestrates budget computation, tier loading, pruning,
// windowing, and the compaction trigger into a final prompt.
//
// Every collaborator failure is soft: the affected tier degrades to empty
// and the build proceeds. BuildPrompt never returns an error; under total
// collaborator outage the result still carries the system prompt and the
// windowed raw history.
type Assembler struct {
	resolver  *Resolver
	calc      *Calculator
	tok       Tokenizer
	pruner    *Pruner
	windower  *Windower
	memory    MemorySource
	summaries SummarySource
	compactor Compactor
	logger    *slog.Logger
	tracer    trace.Tracer
}

// AssemblerOpts carries the optional collaborators for an Assembler.
// Any nil field disables the corresponding tier or feature.
type AssemblerOpts struct {
	Memory    MemorySource
	Summaries SummarySource
	Compactor Compactor
	Logger    *slog.Logger
}

// NewAssembler creates an Assembler. The resolver and tokenizer are
// required; everything in opts is optional.
func NewAssembler(resolver *Resolver, tok Tokenizer, opts AssemblerOpts) *Assembler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		resolver:  resolver,
		calc:      NewCalculator(resolver),
		tok:       tok,
		pruner:    NewPruner(tok),
		windower:  NewWindower(tok),
		memory:    opts.Memory,
		summaries: opts.Summaries,
		compactor: opts.Compactor,
		logger:    logger,
		tracer:    otel.Tracer("braid/ctxengine"),
	}
}

// BuildPrompt assembles a bounded prompt for req. Two concurrent builds
// for the same conversation that both observe dropped messages will both
// trigger compaction; callers needing exactly-once compaction must
// serialize per conversation externally.
func (a *Assembler) BuildPrompt(ctx context.Context, req BuildRequest) BuildResult {
	ctx, span := a.tracer.Start(ctx, "ctxengine.BuildPrompt",
		trace.WithAttributes(
			attribute.String("model", req.Model),
			attribute.Int("messages", len(req.Messages)),
		))
	defer span.End()

	budget := a.calc.Compute(ctx, req.Model)

	systemTokens := a.tok.Estimate(req.SystemPrompt)
	ragTokens := a.tok.Estimate(req.RAGContext)

	tier1 := a.loadTier1(ctx, budget)
	tier2 := a.loadTier2(ctx, req.Messages, budget)
	tier3 := a.loadTier3(ctx, req.ConversationID)

	historyBudget := budget.ContextWindow - budget.ResponseReserve -
		(systemTokens + tier1.Tokens + tier2.Tokens + tier3.Tokens + ragTokens)

	pruned := a.pruner.Prune(req.Messages)
	win := a.windower.Window(pruned, historyBudget)

	var compaction *CompactionOutcome
	compacted := false
	if win.DroppedCount > 0 && req.ConversationID != "" && a.compactor != nil {
		dropped := pruned[:len(pruned)-len(win.Included)]
		outcome, err := a.compactor.Compact(ctx, CompactRequest{
			ConversationID:  req.ConversationID,
			Messages:        dropped,
			ExistingSummary: tier3.Content,
			Model:           req.Model,
			TargetTokens:    budget.Tier3Summary,
		})
		if err != nil {
			a.logger.Warn("ctxengine: compaction failed, proceeding without summary update",
				"conversation", req.ConversationID,
				"dropped", win.DroppedCount,
				"error", err)
		} else {
			tier3 = TierResult{Content: outcome.Summary, Tokens: a.tok.Estimate(outcome.Summary)}
			compaction = &outcome
			compacted = true
		}
	}

	total := systemTokens + tier1.Tokens + tier2.Tokens + tier3.Tokens + ragTokens + win.HistoryTokens

	breakdown := TokenBreakdown{
		System:          systemTokens,
		Tier1:           tier1.Tokens,
		Tier2:           tier2.Tokens,
		Tier3:           tier3.Tokens,
		RAG:             ragTokens,
		History:         win.HistoryTokens,
		Total:           total,
		Budget:          budget.ContextWindow,
		ResponseReserve: budget.ResponseReserve,
		Utilization:     utilization(total, budget.ContextWindow),
		Included:        len(win.Included),
		Dropped:         win.DroppedCount,
		Compacted:       compacted,
	}

	if win.DroppedCount > 0 {
		a.logger.Info("ctxengine: history windowed",
			"model", req.Model,
			"included", len(win.Included),
			"dropped", win.DroppedCount,
			"history_tokens", win.HistoryTokens,
			"compacted", compacted)
	}

	span.SetAttributes(
		attribute.Int("dropped", win.DroppedCount),
		attribute.Float64("utilization", breakdown.Utilization),
		attribute.Bool("compacted", compacted),
	)

	return BuildResult{
		Prompt:          renderPrompt(tier3.Content, win.Included),
		SystemPrompt:    renderSystemPrompt(req.SystemPrompt, tier1.Content, tier2.Content),
		Messages:        win.Included,
		NumCtx:          a.resolver.RecommendedCtx(ctx, req.Model),
		Compaction:      compaction,
		DroppedMessages: win.DroppedCount,
		Breakdown:       breakdown,
	}
}

// loadTier1 loads the static profile, hard-truncated to its allowance.
func (a *Assembler) loadTier1(ctx context.Context, budget TokenBudget) TierResult {
	if a.memory == nil {
		return TierResult{}
	}

	profile, err := a.memory.Profile(ctx)
	if err != nil {
		a.logger.Warn("ctxengine: tier1 profile load failed", "error", err)
		return TierResult{Err: err}
	}
	if profile == "" {
		return TierResult{}
	}

	if a.tok.Estimate(profile) > budget.Tier1Memory {
		profile = a.tok.Truncate(profile, budget.Tier1Memory)
	}
	return TierResult{Content: profile, Tokens: a.tok.Estimate(profile)}
}

// loadTier2 searches memories relevant to the most recent user message,
// hard-truncated to the tier allowance.
func (a *Assembler) loadTier2(ctx context.Context, msgs []message.Message, budget TokenBudget) TierResult {
	if a.memory == nil {
		return TierResult{}
	}

	query := message.LastUserContent(msgs)
	if query == "" {
		return TierResult{}
	}

	hits, err := a.memory.SearchRelevant(ctx, query, tier2MaxSnippets, tier2MinScore)
	if err != nil {
		a.logger.Warn("ctxengine: tier2 memory search failed", "error", err)
		return TierResult{Err: err}
	}
	if len(hits) == 0 {
		return TierResult{}
	}

	var b strings.Builder
	for _, hit := range hits {
		b.WriteString("- ")
		b.WriteString(hit.Content)
		b.WriteString("\n")
	}
	content := strings.TrimRight(b.String(), "\n")

	if a.tok.Estimate(content) > budget.Tier2Memory {
		content = a.tok.Truncate(content, budget.Tier2Memory)
	}
	return TierResult{Content: content, Tokens: a.tok.Estimate(content)}
}

// loadTier3 loads the existing running summary for the conversation.
func (a *Assembler) loadTier3(ctx context.Context, conversationID string) TierResult {
	if a.summaries == nil || conversationID == "" {
		return TierResult{}
	}

	summary, err := a.summaries.Summary(ctx, conversationID)
	if err != nil {
		a.logger.Warn("ctxengine: tier3 summary load failed",
			"conversation", conversationID, "error", err)
		return TierResult{Err: err}
	}
	if summary == "" {
		return TierResult{}
	}
	return TierResult{Content: summary, Tokens: a.tok.Estimate(summary)}
}

// renderPrompt renders the windowed messages as "role: content" lines,
// preceded by the earlier-messages summary block when one exists.
func renderPrompt(summary string, msgs []message.Message) string {
	var b strings.Builder

	if summary != "" {
		b.WriteString("[Summary of earlier messages]\n")
		b.WriteString(summary)
		b.WriteString("\n\n")
	}

	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}

	return b.String()
}

// renderSystemPrompt prepends the profile block and appends the
// relevant-memories block to the caller's system prompt.
func renderSystemPrompt(base, profile, memories string) string {
	var b strings.Builder

	if profile != "" {
		b.WriteString("[Profile context]\n")
		b.WriteString(profile)
		b.WriteString("\n\n")
	}

	b.WriteString(base)

	if memories != "" {
		b.WriteString("\n\n## Relevant memories\n")
		b.WriteString(memories)
	}

	return b.String()
}

// utilization returns total/window rounded to two decimals.
func utilization(total, window int) float64 {
	if window <= 0 {
		return 0
	}
	return math.Round(float64(total)/float64(window)*100) / 100
}
