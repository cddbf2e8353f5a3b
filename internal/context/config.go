// Package ctxengine assembles a bounded-size prompt for an LLM call from
// conversation history, memory tiers, retrieval context, and a running
// summary of discarded history, so the assembled prompt never exceeds the
// model's context window.
package ctxengine

import "time"

// Resolution and budget constants. The tier allowances follow the window
// size the model actually offers, not what the caller asked for.
const (
	// DefaultContextWindow is the hard fallback when every resolution
	// step fails.
	DefaultContextWindow = 4096

	// MaxCacheEntries bounds the resolver's window cache.
	MaxCacheEntries = 10

	// CacheTTL is how long a cached window value stays valid.
	CacheTTL = 10 * time.Minute

	// IntrospectTimeout bounds the live model-introspection call.
	IntrospectTimeout = 10 * time.Second

	// systemPromptAllowance and tier1Allowance are fixed overhead
	// reservations independent of window size.
	systemPromptAllowance = 200
	tier1Allowance        = 150

	// compactionThreshold is the history-utilization fraction at which
	// orchestration callers may pre-emptively compact.
	compactionThreshold = 0.7

	// messageOverheadTokens approximates per-message role and framing cost.
	messageOverheadTokens = 4
)

// Recommended operating window clamp for models whose catalog entry does
// not carry an explicit recommendation.
const (
	recommendedCtxMin = 4096
	recommendedCtxMax = 16384
)

// Pruning thresholds.
const (
	// pruneKeepRecent is how many trailing messages are exempt from
	// tool-payload truncation.
	pruneKeepRecent = 4

	// toolPayloadMaxTokens is the cap applied to oversized fenced blocks
	// and inline JSON payloads in old assistant messages.
	toolPayloadMaxTokens = 200

	// inlineJSONMinChars is the minimum literal size before inline JSON
	// truncation is considered.
	inlineJSONMinChars = 800

	// messageMaxTokens caps any non-final message.
	messageMaxTokens = 500
)
