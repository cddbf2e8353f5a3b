// Package message defines the conversation data contract shared by the
// context engine, the stores, and the admin gateway.
package message

// Role identifies the author of a conversation message.
type Role string

// Supported roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message type tags. Most messages carry no tag; tags mark synthetic
// messages injected by the engine itself.
const (
	// TypeCompactionBanner marks a system message announcing that earlier
	// history was compacted. Banners are presentation-only and are stripped
	// before prompt assembly.
	TypeCompactionBanner = "compaction_banner"
)

// Message is a single conversation turn. The engine treats messages as
// read-only: every transformation produces new copies and the caller's
// slice is never mutated.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// IsCompactionBanner reports whether the message is a synthetic
// compaction banner.
func (m Message) IsCompactionBanner() bool {
	return m.Role == RoleSystem && m.Type == TypeCompactionBanner
}

// LastUserContent returns the content of the most recent user message,
// or an empty string if there is none.
func LastUserContent(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
