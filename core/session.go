package core

import (
	"errors"
	"maps"
	"sync"
	"time"
)

// SessionKey identifies a session. Sessions of different applications or
// users never share state even when their SessionID collides.
type SessionKey struct {
	AppName   string `json:"app_name"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// String renders the key as app/user/session for logs.
func (k SessionKey) String() string { return k.AppName + "/" + k.UserID + "/" + k.SessionID }

// Session represents a conversational container tracking mutable key/value
// state plus an ordered event history. It is safe for concurrent access.
//
// Contract:
//   - State only grows or changes through ApplyStateDelta; keys absent from a
//     delta are never removed
//   - GetEvents returns a copy
//   - GetConversationHistory filters events to user/assistant/tool roles and
//     excludes partial streaming fragments
//   - Clone performs deep copies of maps/slices for safe divergence.
type Session struct {
	Key     SessionKey     `json:"key"`
	State   map[string]any `json:"state"`
	Events  []Event        `json:"events"`
	Created time.Time      `json:"created"`
	Updated time.Time      `json:"updated"`
	mu      sync.RWMutex
}

// NewSession creates a new session for key seeded with a copy of state.
func NewSession(key SessionKey, state map[string]any) *Session {
	now := time.Now()
	s := &Session{Key: key, State: make(map[string]any, len(state)), Events: []Event{}, Created: now, Updated: now}
	maps.Copy(s.State, state)
	return s
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// StateSnapshot returns a copy of the current state map.
func (s *Session) StateSnapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.State)
}

// ApplyStateDelta merges the provided key/value pairs into State.
func (s *Session) ApplyStateDelta(delta map[string]any) {
	if len(delta) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.State, delta)
	s.Updated = time.Now()
}

// AddEvent appends an event to the history updating Updated timestamp.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
	s.Updated = time.Now()
}

// GetEvents returns a copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return events
}

// GetConversationHistory returns the events suitable as model context:
// user, assistant and tool turns that are not partial fragments.
func (s *Session) GetConversationHistory() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Event, 0, len(s.Events))
	for _, ev := range s.Events {
		if ev.Content == nil || ev.IsPartial() {
			continue
		}
		switch ev.Content.Role {
		case RoleUser, RoleAssistant, RoleTool:
			res = append(res, ev)
		}
	}
	return res
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{Key: s.Key, State: maps.Clone(s.State), Events: make([]Event, len(s.Events)), Created: s.Created, Updated: s.Updated}
	if clone.State == nil {
		clone.State = map[string]any{}
	}
	copy(clone.Events, s.Events)
	return clone
}

// ErrSessionNotFound is returned by SessionStore lookups for unknown keys.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps sessions and their evolving state / event history.
//
// Create starts a fresh session for key, replacing any existing one.
// AppendEvent merges ev.Actions.StateDelta into the session state before
// recording the event; ApplyDelta merges without recording an event. Neither
// ever removes keys absent from the delta.
type SessionStore interface {
	Create(key SessionKey, state map[string]any) (*Session, error)
	Get(key SessionKey) (*Session, error)
	Delete(key SessionKey) error
	AppendEvent(key SessionKey, ev Event) error
	ApplyDelta(key SessionKey, delta map[string]any) error
}
