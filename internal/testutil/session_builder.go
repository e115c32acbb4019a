package testutil

import (
	"context"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/logging"
	"github.com/oygul/asil/session"
)

// TestAppName is the application name used by builder defaults.
const TestAppName = "erp_agent"

// Key returns a session key for user with the session id equal to the user id.
func Key(user string) core.SessionKey {
	return core.SessionKey{AppName: TestAppName, UserID: user, SessionID: user}
}

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("42").State(core.StateUserLanguage, "ru").Build()
type SessionBuilder struct {
	key    core.SessionKey
	state  map[string]any
	events []core.Event
}

// NewSessionBuilder creates a new builder for the session of user.
func NewSessionBuilder(user string) *SessionBuilder {
	return &SessionBuilder{key: Key(user), state: map[string]any{}}
}

// State sets or overwrites a state key/value pair on the resulting session (chainable).
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// LoggedIn seeds the state of an authenticated user (chainable).
func (b *SessionBuilder) LoggedIn(lang, token string) *SessionBuilder {
	return b.State(core.StateUserLanguage, lang).
		State(core.StateAwaitingCredentials, false).
		State(core.StateBearerToken, token).
		State(core.StateRefreshToken, "refresh-"+token).
		State(core.StateUserID, "7").
		State(core.StateMerchantID, "3").
		State(core.StateBranchID, "5")
}

// Events appends events to the session history (chainable).
func (b *SessionBuilder) Events(evs ...core.Event) *SessionBuilder {
	b.events = append(b.events, evs...)
	return b
}

// Build returns a *core.Session with pre-populated state and events.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.key, b.state)
	for _, ev := range b.events {
		s.AddEvent(ev)
	}
	return s
}

// Store builds the session inside a fresh in-memory store.
func (b *SessionBuilder) Store() (*session.InMemoryStore, *core.Session) {
	store := session.NewInMemoryStore()
	_, _ = store.Create(b.key, b.state)
	for _, ev := range b.events {
		_ = store.AppendEvent(b.key, ev)
	}
	s, _ := store.Get(b.key)
	return store, s
}

// RunContext builds a RunContext over the session with a buffered emit
// channel and no resume signalling.
func (b *SessionBuilder) RunContext(agent string) *core.RunContext {
	return b.RunContextWith(agent, make(chan core.Event, 64), nil)
}

// RunContextWith builds a RunContext over the session using the given
// channels.
func (b *SessionBuilder) RunContextWith(agent string, emit chan<- core.Event, resume <-chan struct{}) *core.RunContext {
	store, s := b.Store()
	return core.NewRunContext(context.Background(), b.key, "run-test", core.AgentInfo{Name: agent, Type: "test"},
		core.Content{}, core.RunContextOptions{
			Emit:         emit,
			Resume:       resume,
			SessionStore: store,
			Session:      s,
			Logger:       logging.NoOpLogger{},
		})
}

// ToolContext builds a ToolContext for a call made by agent.
func (b *SessionBuilder) ToolContext(agent string) *core.ToolContext {
	return core.NewToolContext(b.RunContext(agent), "fc-test")
}
