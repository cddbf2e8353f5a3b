package observe

import (
	"sync"
	"time"

	ctxengine "github.com/braidhq/braid/internal/context"
)

const subscriberBuffer = 16

// BuildEvent is the per-build record streamed to event subscribers.
type BuildEvent struct {
	Model           string    `json:"model"`
	ConversationID  string    `json:"conversation_id,omitempty"`
	ContextWindow   int       `json:"context_window"`
	TotalTokens     int       `json:"total_tokens"`
	Utilization     float64   `json:"utilization"`
	DroppedMessages int       `json:"dropped_messages"`
	Compacted       bool      `json:"compacted"`
	Timestamp       time.Time `json:"timestamp"`
}

// Hub fans build events out to subscribers. Slow subscribers lose
// events rather than blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan BuildEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan BuildEvent]struct{})}
}

// Subscribe returns a channel of events and a cancel function. The
// channel is closed when cancel is called.
func (h *Hub) Subscribe() (<-chan BuildEvent, func()) {
	ch := make(chan BuildEvent, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber with room in its buffer.
func (h *Hub) Publish(ev BuildEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// EventFromBuild converts a build result into the streamed event form.
func EventFromBuild(model, conversationID string, result ctxengine.BuildResult) BuildEvent {
	return BuildEvent{
		Model:           model,
		ConversationID:  conversationID,
		ContextWindow:   result.Breakdown.Budget,
		TotalTokens:     result.Breakdown.Total,
		Utilization:     result.Breakdown.Utilization,
		DroppedMessages: result.DroppedMessages,
		Compacted:       result.Breakdown.Compacted,
		Timestamp:       time.Now().UTC(),
	}
}
