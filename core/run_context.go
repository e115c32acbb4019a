package core

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/oygul/asil/logging"
)

// ErrNoSessionStore is returned by helpers that need a SessionStore when the
// RunContext was built without one.
var ErrNoSessionStore = errors.New("session store not configured")

// RunContext carries execution state & helpers for one agent turn. It
// aggregates:
//   - The ambient cancellation Context
//   - Identifiers (SessionKey, RunID, Agent info)
//   - Input user Content
//   - Emission / resumption coordination channels
//   - The SessionStore and a working Session snapshot
//   - Pending StateDelta to attach to the next emitted event
//
// State mutations performed via SetState accumulate in StateDelta until
// EmitEvent attaches them to an event. The delta buffer is guarded so tools
// executing in parallel may stage state concurrently.
type RunContext struct {
	Context      context.Context
	SessionKey   SessionKey
	RunID        string
	Agent        AgentInfo
	UserContent  Content
	Emit         chan<- Event
	Resume       <-chan struct{}
	SessionStore SessionStore
	Limiter      *ModelLimiter
	Session      *Session

	mu         sync.Mutex
	stateDelta map[string]any

	*loggerAdapter
}

// RunContextOptions bundles the optional collaborators of a RunContext.
type RunContextOptions struct {
	Emit          chan<- Event
	Resume        <-chan struct{}
	SessionStore  SessionStore
	Session       *Session
	MaxModelCalls int
	Logger        logging.Logger
}

// NewRunContext constructs a RunContext with an empty state delta.
func NewRunContext(ctx context.Context, key SessionKey, runID string, agent AgentInfo, userContent Content, opts RunContextOptions) *RunContext {
	return &RunContext{
		Context:       ctx,
		SessionKey:    key,
		RunID:         runID,
		Agent:         agent,
		UserContent:   userContent,
		Emit:          opts.Emit,
		Resume:        opts.Resume,
		SessionStore:  opts.SessionStore,
		Session:       opts.Session,
		Limiter:       NewModelLimiter(opts.MaxModelCalls),
		stateDelta:    map[string]any{},
		loggerAdapter: newLoggerAdapter(opts.Logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a staged value if present, else the session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	rc.mu.Lock()
	v, ok := rc.stateDelta[k]
	rc.mu.Unlock()
	if ok {
		return v, true
	}

	if rc.Session != nil {
		return rc.Session.GetState(k)
	}

	return nil, false
}

// SetState stages a state mutation for the next emitted event.
func (rc *RunContext) SetState(k string, v any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.stateDelta[k] = v
}

// PendingStateDelta returns a copy of the staged delta.
func (rc *RunContext) PendingStateDelta() map[string]any {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return maps.Clone(rc.stateDelta)
}

// RefreshSession reloads the session snapshot from the SessionStore.
func (rc *RunContext) RefreshSession() error {
	if rc.SessionStore == nil {
		return ErrNoSessionStore
	}

	s, err := rc.SessionStore.Get(rc.SessionKey)
	if err != nil {
		return err
	}

	rc.Session = s

	return nil
}

// GetSessionHistory returns the conversational history of the session.
func (rc *RunContext) GetSessionHistory() []Event {
	if rc.Session == nil {
		return []Event{}
	}

	return rc.Session.GetConversationHistory()
}

// ForAgent derives a context for a delegated agent. Channels, store, limiter
// and session are shared; the pending delta moves to the child so it is
// attached to the child's first emitted event.
func (rc *RunContext) ForAgent(agent AgentInfo) *RunContext {
	rc.mu.Lock()
	delta := rc.stateDelta
	rc.stateDelta = map[string]any{}
	rc.mu.Unlock()

	return &RunContext{
		Context:       rc.Context,
		SessionKey:    rc.SessionKey,
		RunID:         rc.RunID,
		Agent:         agent,
		UserContent:   rc.UserContent,
		Emit:          rc.Emit,
		Resume:        rc.Resume,
		SessionStore:  rc.SessionStore,
		Limiter:       rc.Limiter,
		Session:       rc.Session,
		stateDelta:    delta,
		loggerAdapter: rc.loggerAdapter,
	}
}

// EmitEvent merges the pending StateDelta into the event and emits it.
// Partial events are forwarded without draining the delta.
func (rc *RunContext) EmitEvent(ev Event) error {
	if !ev.IsPartial() {
		rc.mu.Lock()
		if len(rc.stateDelta) > 0 {
			if ev.Actions.StateDelta == nil {
				ev.Actions.StateDelta = map[string]any{}
			}
			maps.Copy(ev.Actions.StateDelta, rc.stateDelta)
			rc.stateDelta = map[string]any{}
		}
		rc.mu.Unlock()
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	return nil
}

// WaitForResume blocks until the runner signals that the last emitted event
// was persisted, or the context is cancelled.
func (rc *RunContext) WaitForResume() error {
	if rc.Resume == nil {
		return nil
	}

	select {
	case <-rc.Resume:
		return nil
	case <-rc.Context.Done():
		return rc.Context.Err()
	}
}

// Publish emits ev and, for non-partial events, waits until the runner has
// persisted it so the next session refresh observes its effects.
func (rc *RunContext) Publish(ev Event) error {
	if err := rc.EmitEvent(ev); err != nil {
		return err
	}

	if ev.IsPartial() {
		return nil
	}

	return rc.WaitForResume()
}

// StateSnapshot returns the session state overlaid with the staged delta.
func (rc *RunContext) StateSnapshot() map[string]any {
	state := map[string]any{}
	if rc.Session != nil {
		state = rc.Session.StateSnapshot()
	}

	rc.mu.Lock()
	maps.Copy(state, rc.stateDelta)
	rc.mu.Unlock()

	return state
}
