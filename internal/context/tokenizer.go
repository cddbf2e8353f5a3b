package ctxengine

import (
	"strings"
	"unicode/utf8"
)

// Tokenizer estimates token counts and truncates text to a token budget.
// The engine consumes this as a primitive; it never counts tokens itself.
type Tokenizer interface {
	// Estimate returns the estimated token count for text.
	Estimate(text string) int

	// Truncate shortens text so its estimated token count does not exceed
	// maxTokens, cutting at a content-safe boundary. A maxTokens <= 0
	// returns the empty string.
	Truncate(text string, maxTokens int) string
}

// CharTokenizer estimates tokens using a characters-per-token ratio.
// A ratio of ~4 works well for English; ~3 for French or German.
type CharTokenizer struct {
	CharsPerToken float64
}

// NewCharTokenizer creates a CharTokenizer with the given ratio.
// If charsPerToken is <= 0, defaults to 4.0 (English approximation).
func NewCharTokenizer(charsPerToken float64) *CharTokenizer {
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}
	return &CharTokenizer{CharsPerToken: charsPerToken}
}

// Estimate returns the estimated token count for the given text.
func (t *CharTokenizer) Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := float64(len(text)) / t.CharsPerToken
	// Always round up to avoid underestimation.
	return int(tokens) + 1
}

// Truncate shortens text to at most maxTokens estimated tokens.
// The cut lands on a rune boundary and backs up to the previous word
// break when one is close, so the result does not end mid-word.
func (t *CharTokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if t.Estimate(text) <= maxTokens {
		return text
	}

	// Estimate(s) = int(len(s)/ratio)+1, so len must stay strictly under
	// maxTokens*ratio for the estimate to fit.
	maxChars := int(float64(maxTokens)*t.CharsPerToken) - 1
	if maxChars < 1 {
		return ""
	}
	if maxChars >= len(text) {
		maxChars = len(text) - 1
	}

	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	truncated := text[:cut]

	// Back up to a word boundary if one is reasonably close.
	if idx := strings.LastIndexAny(truncated, " \t\n"); idx > cut-40 && idx > 0 {
		truncated = truncated[:idx]
	}

	return truncated
}
