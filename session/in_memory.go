package session

import (
	"fmt"
	"sync"

	"github.com/oygul/asil/core"
)

// InMemoryStore is a volatile SessionStore storing sessions in a process
// local map keyed by (app, user, session). It is safe for concurrent access.
// Each returned session is cloned to prevent external mutation of internal
// state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[core.SessionKey]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[core.SessionKey]*core.Session)}
}

// Create stores a fresh session seeded with state, replacing any session
// previously stored under key.
func (s *InMemoryStore) Create(key core.SessionKey, state map[string]any) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := core.NewSession(key, state)
	s.sessions[key] = sess
	return sess.Clone(), nil
}

// Get returns a clone of the stored session.
func (s *InMemoryStore) Get(key core.SessionKey) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, key)
	}
	return sess.Clone(), nil
}

// Delete removes the session; deleting an unknown key is not an error.
func (s *InMemoryStore) Delete(key core.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// AppendEvent merges the event's state delta and records the event.
func (s *InMemoryStore) AppendEvent(key core.SessionKey, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, key)
	}
	sess.ApplyStateDelta(ev.Actions.StateDelta)
	if ev.Content != nil || ev.IsError() {
		sess.AddEvent(ev)
	}
	return nil
}

// ApplyDelta merges a key/value delta into the session state.
func (s *InMemoryStore) ApplyDelta(key core.SessionKey, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, key)
	}
	sess.ApplyStateDelta(delta)
	return nil
}

// Len returns the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
