package ctxengine

import "context"

// TokenBudget is the full tiered token allocation derived from a resolved
// context window. Derived fresh per call; never persisted.
type TokenBudget struct {
	ContextWindow       int     `json:"context_window"`
	SystemPrompt        int     `json:"system_prompt"`
	Tier1Memory         int     `json:"tier1_memory"`
	Tier2Memory         int     `json:"tier2_memory"`
	Tier3Summary        int     `json:"tier3_summary"`
	MaxRAGTokens        int     `json:"max_rag_tokens"`
	ResponseReserve     int     `json:"response_reserve"`
	AvailableForHistory int     `json:"available_for_history"`
	CompactionThreshold float64 `json:"compaction_threshold"`
}

// Calculator derives token budgets from resolved context windows.
type Calculator struct {
	resolver *Resolver
}

// NewCalculator creates a Calculator backed by the given resolver.
func NewCalculator(resolver *Resolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// Compute resolves the context window for model and derives the full
// tiered budget. Memory-tier allowances scale with the window: small
// models get tighter memory budgets so history keeps room to breathe.
func (c *Calculator) Compute(ctx context.Context, model string) TokenBudget {
	window := c.resolver.ContextWindow(ctx, model)
	return BudgetForWindow(window)
}

// BudgetForWindow derives the tiered budget for an already-resolved
// context window.
func BudgetForWindow(window int) TokenBudget {
	reserve := ResponseReserve(window)

	tier2 := 200
	tier3 := 300
	if window >= 16384 {
		tier2 = 400
		tier3 = 600
	}

	maxRAG := 1500
	switch {
	case window >= 32768:
		maxRAG = 8000
	case window >= 16384:
		maxRAG = 4000
	}

	fixedOverhead := systemPromptAllowance + tier1Allowance + tier2 + tier3

	available := window - reserve - fixedOverhead - maxRAG
	if available < 0 {
		available = 0
	}

	return TokenBudget{
		ContextWindow:       window,
		SystemPrompt:        systemPromptAllowance,
		Tier1Memory:         tier1Allowance,
		Tier2Memory:         tier2,
		Tier3Summary:        tier3,
		MaxRAGTokens:        maxRAG,
		ResponseReserve:     reserve,
		AvailableForHistory: available,
		CompactionThreshold: compactionThreshold,
	}
}
