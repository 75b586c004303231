package session

import (
	"errors"
	"time"

	"sync"

	"narrationkit/core"
)

// ErrNotFound reports an operation against a session id the registry does not
// know.
var ErrNotFound = errors.New("session not found")

// Registry owns every live session and tracks the "current" one: the session
// a caller targets when it supplies no explicit id. All operations are atomic
// with respect to each other. The current pointer never dangles; deleting the
// current session clears it.
type Registry struct {
	logger *core.Logger

	mu        sync.Mutex
	sessions  map[string]*Session
	currentID string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *core.Logger) *Registry {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Registry{
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create makes a new session and marks it current.
func (r *Registry) Create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked()
}

func (r *Registry) createLocked() *Session {
	sess := New()
	r.sessions[sess.ID()] = sess
	r.currentID = sess.ID()
	r.logger.With(map[string]any{"session_id": sess.ID()}).Debug("session created")
	return sess
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// GetOrCreate resolves to the named session if it exists. An empty id falls
// back to the current session; if neither resolves, a fresh session is
// created and made current.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		id = r.currentID
	}
	if sess, ok := r.sessions[id]; ok {
		return sess
	}
	return r.createLocked()
}

// Current returns the current session, creating one if none exists.
func (r *Registry) Current() *Session {
	return r.GetOrCreate("")
}

// SetCurrent points the registry at an existing session. The pointer is left
// unchanged when the id is unknown.
func (r *Registry) SetCurrent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	r.currentID = id
	return nil
}

// Delete removes a session, clearing the current pointer if it pointed there.
// Returns false when the id is unknown.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteLocked(id)
}

func (r *Registry) deleteLocked(id string) bool {
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	if r.currentID == id {
		r.currentID = ""
	}
	r.logger.With(map[string]any{"session_id": id}).Debug("session deleted")
	return true
}

// ListIDs returns all known session ids in unspecified order.
func (r *Registry) ListIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Cleanup deletes every session whose last activity is older than maxAge and
// returns the number removed. Age is measured from last_activity, so any
// recently used session (the current one included) survives.
func (r *Registry) Cleanup(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	var stale []string
	for id, sess := range r.sessions {
		if sess.LastActivity().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		r.deleteLocked(id)
	}
	if len(stale) > 0 {
		r.logger.With(map[string]any{"count": len(stale)}).Info("cleaned up inactive sessions")
	}
	return len(stale)
}
