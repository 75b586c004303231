package core

import (
	"fmt"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a role string, defaulting to RoleUser when empty.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUser, nil
	case RoleUser, RoleAssistant:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role %q (must be %q or %q)", s, RoleUser, RoleAssistant)
	}
}

// Message is a single conversation turn. Immutable once created; the owning
// session appends it to history and never reorders or rewrites it.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Narration *string   `json:"narration"`
	Timestamp time.Time `json:"timestamp"`
}

// NarrationText returns the narration and whether one was attached.
func (m Message) NarrationText() (string, bool) {
	if m.Narration == nil {
		return "", false
	}
	return *m.Narration, true
}
