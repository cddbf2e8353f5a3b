package ctxengine_test

import (
	"context"
	"testing"

	ctxengine "github.com/braidhq/braid/internal/context"
)

func TestBudgetForWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		window        int
		wantTier2     int
		wantTier3     int
		wantRAG       int
		wantReserve   int
		wantAvailable int
	}{
		{
			name:      "small_4k",
			window:    4096,
			wantTier2: 200, wantTier3: 300, wantRAG: 1500, wantReserve: 1024,
			// 4096 - 1024 - (200+150+200+300) - 1500
			wantAvailable: 722,
		},
		{
			name:      "mid_8k",
			window:    8192,
			wantTier2: 200, wantTier3: 300, wantRAG: 1500, wantReserve: 2048,
			wantAvailable: 3794,
		},
		{
			name:      "large_16k",
			window:    16384,
			wantTier2: 400, wantTier3: 600, wantRAG: 4000, wantReserve: 2048,
			wantAvailable: 8986,
		},
		{
			name:      "huge_32k",
			window:    32768,
			wantTier2: 400, wantTier3: 600, wantRAG: 8000, wantReserve: 4096,
			wantAvailable: 19322,
		},
		{
			name:      "tiny_window_floors_at_zero",
			window:    2048,
			wantTier2: 200, wantTier3: 300, wantRAG: 1500, wantReserve: 1024,
			wantAvailable: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := ctxengine.BudgetForWindow(tt.window)

			if b.ContextWindow != tt.window {
				t.Errorf("ContextWindow = %d, want %d", b.ContextWindow, tt.window)
			}
			if b.SystemPrompt != 200 || b.Tier1Memory != 150 {
				t.Errorf("fixed allowances = (%d, %d), want (200, 150)", b.SystemPrompt, b.Tier1Memory)
			}
			if b.Tier2Memory != tt.wantTier2 {
				t.Errorf("Tier2Memory = %d, want %d", b.Tier2Memory, tt.wantTier2)
			}
			if b.Tier3Summary != tt.wantTier3 {
				t.Errorf("Tier3Summary = %d, want %d", b.Tier3Summary, tt.wantTier3)
			}
			if b.MaxRAGTokens != tt.wantRAG {
				t.Errorf("MaxRAGTokens = %d, want %d", b.MaxRAGTokens, tt.wantRAG)
			}
			if b.ResponseReserve != tt.wantReserve {
				t.Errorf("ResponseReserve = %d, want %d", b.ResponseReserve, tt.wantReserve)
			}
			if b.AvailableForHistory != tt.wantAvailable {
				t.Errorf("AvailableForHistory = %d, want %d", b.AvailableForHistory, tt.wantAvailable)
			}
			if b.AvailableForHistory < 0 {
				t.Error("AvailableForHistory must never be negative")
			}
			if b.CompactionThreshold != 0.7 {
				t.Errorf("CompactionThreshold = %v, want 0.7", b.CompactionThreshold)
			}
		})
	}
}

func TestCalculator_Compute(t *testing.T) {
	t.Parallel()

	// Resolution failure everywhere: budget is derived from the hard
	// default window.
	r := newTestResolver(&mockIntrospector{err: errBoom}, &mockCatalog{err: errBoom})
	calc := ctxengine.NewCalculator(r)

	b := calc.Compute(context.Background(), "unknown:latest")
	if b.ContextWindow != ctxengine.DefaultContextWindow {
		t.Errorf("ContextWindow = %d, want %d", b.ContextWindow, ctxengine.DefaultContextWindow)
	}
}
