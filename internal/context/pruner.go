package ctxengine

import (
	"regexp"
	"strings"

	"github.com/braidhq/braid/pkg/message"
)

// truncationMarker is appended wherever the pruner cuts content. Its
// presence also tells a later pass that the content was already cut,
// which keeps pruning idempotent.
const truncationMarker = "… [truncated]"

var (
	// thinkingPattern matches reasoning markup emitted by thinking models.
	// Non-greedy so adjacent blocks are stripped independently.
	thinkingPattern = regexp.MustCompile(`(?s)<think(?:ing)?>.*?</think(?:ing)?>`)

	// fencedPattern matches fenced code blocks, language tag included.
	fencedPattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\n?.*?```")

	// inlineJSONPattern matches large JSON-like object or array literals
	// outside code fences.
	inlineJSONPattern = regexp.MustCompile(`(?s)\{.{800,}\}|\[.{800,}\]`)
)

// toolPayloadMarkers are keyword hints that a message carries tool output.
// The German "Ergebnis:" matches the tool-result phrasing used by
// localized assistants.
var toolPayloadMarkers = []string{"Result:", "Output:", "Ergebnis:"}

// Pruner transiently strips and trims noisy content from conversation
// messages before windowing. Pruning is pure: it returns new message
// copies and never mutates its input.
type Pruner struct {
	tok Tokenizer
}

// NewPruner creates a Pruner using tok for token estimation and truncation.
func NewPruner(tok Tokenizer) *Pruner {
	return &Pruner{tok: tok}
}

// Prune returns a pruned copy of msgs. Per message:
//
//  1. Thinking-block markup is removed everywhere.
//  2. Assistant messages more than four positions from the end that look
//     like tool output get oversized fenced blocks and inline JSON
//     literals cut to a token cap.
//  3. Any non-final message over the per-message token cap is truncated.
//  4. Compaction-banner system messages are dropped.
//
// Surviving messages keep their original relative order, with content
// whitespace-trimmed. Pruning its own output is a no-op.
//
// The tool-output detection is a best-effort substring heuristic. It can
// both over- and under-trigger; it is a size guard, not a parser.
func (p *Pruner) Prune(msgs []message.Message) []message.Message {
	if len(msgs) == 0 {
		return nil
	}

	lastIdx := len(msgs) - 1
	pruned := make([]message.Message, 0, len(msgs))

	for i, m := range msgs {
		if m.IsCompactionBanner() {
			continue
		}

		content := thinkingPattern.ReplaceAllString(m.Content, "")

		if lastIdx-i > pruneKeepRecent && m.Role == message.RoleAssistant && looksLikeToolPayload(content) {
			content = p.shrinkToolPayloads(content)
		}

		if i != lastIdx && !strings.HasSuffix(content, truncationMarker) && p.tok.Estimate(content) > messageMaxTokens {
			content = p.tok.Truncate(content, messageMaxTokens) + truncationMarker
		}

		m.Content = strings.TrimSpace(content)
		pruned = append(pruned, m)
	}

	return pruned
}

// shrinkToolPayloads cuts oversized fenced blocks, then oversized inline
// JSON literals, to toolPayloadMaxTokens each.
func (p *Pruner) shrinkToolPayloads(content string) string {
	content = fencedPattern.ReplaceAllStringFunc(content, func(block string) string {
		if strings.Contains(block, truncationMarker) {
			return block
		}
		if p.tok.Estimate(block) <= toolPayloadMaxTokens {
			return block
		}
		return p.tok.Truncate(block, toolPayloadMaxTokens) + truncationMarker
	})

	content = inlineJSONPattern.ReplaceAllStringFunc(content, func(literal string) string {
		if strings.Contains(literal, truncationMarker) || strings.Contains(literal, "```") {
			return literal
		}
		if len(literal) < inlineJSONMinChars || p.tok.Estimate(literal) <= toolPayloadMaxTokens {
			return literal
		}
		return p.tok.Truncate(literal, toolPayloadMaxTokens) + truncationMarker
	})

	return content
}

// looksLikeToolPayload reports whether content resembles tool or JSON
// output: fenced blocks, result keywords, or JSON sigils.
func looksLikeToolPayload(content string) bool {
	if strings.Contains(content, "```") {
		return true
	}
	for _, marker := range toolPayloadMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return strings.Contains(content, `{"`) || strings.Contains(content, "[{")
}
