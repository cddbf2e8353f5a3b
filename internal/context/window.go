package ctxengine

import "github.com/braidhq/braid/pkg/message"

// WindowResult is the outcome of greedy history windowing.
type WindowResult struct {
	// Included is the newest contiguous run of messages that fit the
	// budget, in chronological order.
	Included []message.Message

	// DroppedCount is how many input messages did not fit.
	DroppedCount int

	// HistoryTokens is the sum of estimated tokens plus per-message
	// overhead over the included messages.
	HistoryTokens int
}

// Windower greedily selects the newest messages that fit a token budget.
type Windower struct {
	tok Tokenizer
}

// NewWindower creates a Windower using tok for token estimation.
func NewWindower(tok Tokenizer) *Windower {
	return &Windower{tok: tok}
}

// Window walks msgs from newest to oldest, keeping messages while the
// running total (content estimate + fixed per-message overhead) stays
// within budgetTokens. The newest message is always admitted, even when
// it alone exceeds the budget, so a non-empty input never windows to
// nothing. A budget of zero or less keeps exactly the newest message.
func (w *Windower) Window(msgs []message.Message, budgetTokens int) WindowResult {
	if len(msgs) == 0 {
		return WindowResult{}
	}

	last := msgs[len(msgs)-1]
	lastCost := w.tok.Estimate(last.Content) + messageOverheadTokens

	if budgetTokens <= 0 {
		// Never drop everything: the model still needs the latest turn.
		return WindowResult{
			Included:      []message.Message{last},
			DroppedCount:  len(msgs) - 1,
			HistoryTokens: lastCost,
		}
	}

	included := []message.Message{last}
	total := lastCost

	for i := len(msgs) - 2; i >= 0; i-- {
		cost := w.tok.Estimate(msgs[i].Content) + messageOverheadTokens
		if total+cost > budgetTokens {
			break
		}
		included = append(included, msgs[i])
		total += cost
	}

	// Restore chronological order.
	for i, j := 0, len(included)-1; i < j; i, j = i+1, j-1 {
		included[i], included[j] = included[j], included[i]
	}

	return WindowResult{
		Included:      included,
		DroppedCount:  len(msgs) - len(included),
		HistoryTokens: total,
	}
}
