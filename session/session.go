// Package session holds conversation state: the Session value object and the
// Registry that owns every live session.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"narrationkit/core"
)

// Session is one conversational context: an ordered message history plus the
// voice settings that govern how narration is spoken. All mutating methods
// refresh last_activity; it never goes backwards.
type Session struct {
	id        string
	createdAt time.Time

	mu           sync.Mutex
	history      []core.Message
	settings     core.VoiceSettings
	lastActivity time.Time
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	SessionID     string             `json:"session_id"`
	History       []core.Message     `json:"history"`
	VoiceSettings core.VoiceSettings `json:"voice_settings"`
	CreatedAt     time.Time          `json:"created_at"`
	LastActivity  time.Time          `json:"last_activity"`
}

// New creates a session with a fresh id and fully populated default settings.
func New() *Session {
	now := time.Now()
	return &Session{
		id:           uuid.NewString(),
		createdAt:    now,
		lastActivity: now,
		settings:     core.DefaultVoiceSettings(),
	}
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastActivity returns the time of the most recent mutating operation.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// AddMessage appends a message to the history and returns the stored copy.
// Content is stored as given; empty or whitespace-only text is accepted.
func (s *Session) AddMessage(role core.Role, content string, narr *string) core.Message {
	msg := core.Message{
		Role:      role,
		Content:   content,
		Narration: narr,
		Timestamp: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
	s.touchLocked()
	return msg
}

// History returns messages in append order. A negative limit returns all,
// zero returns none, and a positive limit returns the most recent n (still
// oldest-first).
func (s *Session) History(limit int) []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit == 0 {
		return []core.Message{}
	}
	start := 0
	if limit > 0 && limit < len(s.history) {
		start = len(s.history) - limit
	}
	out := make([]core.Message, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// Len returns the number of stored messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Clear empties the history and returns how many messages were removed.
func (s *Session) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := len(s.history)
	s.history = nil
	s.touchLocked()
	return removed
}

// Settings returns a copy of the current voice settings.
func (s *Session) Settings() core.VoiceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings merges a partial update into the voice settings. The update
// is validated as a whole before anything is applied; on error the settings
// are unchanged and last_activity is not refreshed. Returns the applied keys.
func (s *Session) UpdateSettings(update map[string]any) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied, err := s.settings.Apply(update)
	if err != nil {
		return nil, err
	}
	s.touchLocked()
	return applied, nil
}

// Snapshot captures the full session state for serialization.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]core.Message, len(s.history))
	copy(history, s.history)
	return Snapshot{
		SessionID:     s.id,
		History:       history,
		VoiceSettings: s.settings,
		CreatedAt:     s.createdAt,
		LastActivity:  s.lastActivity,
	}
}

func (s *Session) touchLocked() {
	if now := time.Now(); now.After(s.lastActivity) {
		s.lastActivity = now
	}
}
