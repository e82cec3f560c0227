package domain

import (
	"strings"
	"time"
)

// MaxMessageLength is the cap, in characters, applied to incoming text
// before analysis. Longer texts are truncated by the intake layer, never
// by the scoring core.
const MaxMessageLength = 2000

// TruncateText cuts s to at most max characters, always on a rune
// boundary so a multi-byte character is never split.
func TruncateText(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// Message represents an incoming SMS or mirrored notification to be scored.
type Message struct {
	// Core identifiers
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`

	// Source channel (e.g., "sms", "notification", "api")
	Source string `json:"source"`

	// Sender identity as reported by the channel (number or alphanumeric ID)
	Sender string `json:"sender"`

	// Raw message text, truncated to MaxMessageLength by intake
	Text string `json:"text"`

	// Temporal
	ReceivedAt time.Time `json:"receivedAt"`
	CreatedAt  time.Time `json:"createdAt"`

	// Optional metadata
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MessageRequest is the API request payload for message analysis.
type MessageRequest struct {
	Sender   string                 `json:"sender" validate:"required"`
	Text     string                 `json:"text" validate:"required"`
	Source   string                 `json:"source,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToMessage converts a request to a Message domain object, applying the
// intake truncation policy.
func (r *MessageRequest) ToMessage() *Message {
	now := time.Now().UTC()

	text := TruncateText(strings.TrimSpace(r.Text), MaxMessageLength)

	source := r.Source
	if source == "" {
		source = "api"
	}

	return &Message{
		Source:     source,
		Sender:     r.Sender,
		Text:       text,
		ReceivedAt: now,
		CreatedAt:  now,
		Metadata:   r.Metadata,
	}
}
