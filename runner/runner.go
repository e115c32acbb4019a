package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/logging"
	"github.com/oygul/asil/session"
)

// NoFinalResponse is returned by Respond when a run produced no final text.
const NoFinalResponse = "Agent did not produce a final response."

// ErrRunNotFound is returned by Cancel for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MaxConcurrentInvocations limits concurrent agent invocations; further
	// runs wait for a free slot until their context ends. <= 0 means unlimited.
	MaxConcurrentInvocations int
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// MaxModelCalls limits the number of model calls per run.
	MaxModelCalls int
	// SessionStore holds the sessions runs operate on.
	SessionStore core.SessionStore
	// Logger receives runner diagnostics.
	Logger logging.Logger
}

// Runner coordinates agent execution: creates run contexts, streams events,
// persists history and state deltas and resumes the agent once each event is
// stored. Public methods are safe for concurrent use.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	maxModelCalls   int
	slots           chan struct{}

	sessionStore core.SessionStore
	logger       logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentInvocations: 10,
		EventBufferSize:          100,
		MaxModelCalls:            25,
		Logger:                   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}

	r := &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		sessionStore:    opts.SessionStore,
		logger:          logging.Component(opts.Logger, "runner"),
		activeRuns:      make(map[string]context.CancelFunc),
	}

	if opts.MaxConcurrentInvocations > 0 {
		r.slots = make(chan struct{}, opts.MaxConcurrentInvocations)
	}

	return r
}

// SessionStore returns the store runs are persisted to.
func (r *Runner) SessionStore() core.SessionStore { return r.sessionStore }

// Run starts an asynchronous invocation for the session identified by key.
// Both returned channels are closed once the run is over.
func (r *Runner) Run(
	ctx context.Context,
	key core.SessionKey,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	if r.slots != nil {
		select {
		case r.slots <- struct{}{}:
		case <-ctx.Done():
			return "", nil, nil, fmt.Errorf("waiting for a run slot: %w", ctx.Err())
		}
	}

	// read after the slot is taken so a queued run sees the latest state
	sess, err := r.sessionStore.Get(key)
	if err != nil {
		r.release()
		return "", nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	runID, err := gonanoid.New()
	if err != nil {
		r.release()
		return "", nil, nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.sessionStore.AppendEvent(key, userEvent); err != nil {
		r.release()
		return "", nil, nil, fmt.Errorf("failed to append user event: %w", err)
	}
	sess.AddEvent(userEvent)

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 2)
	agentEmit := make(chan core.Event, r.eventBufferSize)
	resumeCh := make(chan struct{}, 1)

	runCtxBase, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	runCtx := core.NewRunContext(runCtxBase, key, runID, core.AgentInfo{Name: r.agent.Name(), Type: "root"}, userContent,
		core.RunContextOptions{
			Emit:          agentEmit,
			Resume:        resumeCh,
			SessionStore:  r.sessionStore,
			Session:       sess,
			MaxModelCalls: r.maxModelCalls,
			Logger:        r.logger,
		})

	r.logger.Debug("runner.run.start", "run", runID, "session", key.String(), "agent", r.agent.Name())

	agentErr := make(chan error, 1)

	go func() {
		defer close(agentEmit)
		agentErr <- r.agent.Run(runCtx)
	}()

	go func() {
		defer func() {
			cancel()
			// the agent observes cancellation; wait for it before closing errorsCh
			for range agentEmit {
			}
			if err := <-agentErr; err != nil && ctx.Err() == nil {
				errorsCh <- fmt.Errorf("agent execution failed: %w", err)
			}

			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			r.release()
			close(eventsCh)
			close(errorsCh)
			r.logger.Debug("runner.run.complete", "run", runID, "session", key.String())
		}()

		if err := r.processEvents(runCtx, key, agentEmit, resumeCh, eventsCh); err != nil {
			errorsCh <- err
		}
	}()

	return runID, eventsCh, errorsCh, nil
}

// Cancel cancels a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	cancel()

	return nil
}

// Respond runs a turn with text as the user message and returns the final
// response text. Error events produced by the agent are returned as errors.
func (r *Runner) Respond(ctx context.Context, key core.SessionKey, text string) (string, error) {
	_, events, errs, err := r.Run(ctx, key, core.NewTextContent(core.RoleUser, text))
	if err != nil {
		return "", err
	}

	var (
		final    string
		runErr   error
		eventErr error
	)

	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.IsError() {
				eventErr = fmt.Errorf("%s: %s", *ev.ErrorCode, *ev.ErrorMessage)
				continue
			}
			if ev.IsFinalResponse() {
				if t := ev.Text(); t != "" {
					final = t
				}
			}
		case e, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			runErr = e
		}
	}

	switch {
	case final != "":
		return final, nil
	case runErr != nil:
		return "", runErr
	case eventErr != nil:
		return "", eventErr
	case ctx.Err() != nil:
		return "", ctx.Err()
	default:
		return NoFinalResponse, nil
	}
}

func (r *Runner) release() {
	if r.slots != nil {
		<-r.slots
	}
}

func (r *Runner) processEvents(
	runCtx *core.RunContext,
	key core.SessionKey,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	eventsCh chan<- core.Event,
) error {
	for {
		select {
		case <-runCtx.Done():
			return nil
		case ev, ok := <-agentEmit:
			if !ok {
				return nil
			}

			if err := r.persist(key, ev); err != nil {
				return err
			}

			select {
			case <-runCtx.Done():
				return nil
			case eventsCh <- ev:
				r.logger.Debug("runner.event.delivered", "event_id", ev.ID, "author", ev.Author, "session", key.String())
			}

			if !ev.IsPartial() {
				select {
				case resumeCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

// persist appends non-partial events (the store merges their delta) and
// applies any delta carried by partial ones.
func (r *Runner) persist(key core.SessionKey, ev core.Event) error {
	if ev.IsPartial() {
		if len(ev.Actions.StateDelta) == 0 {
			return nil
		}
		if err := r.sessionStore.ApplyDelta(key, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
		return nil
	}

	if err := r.sessionStore.AppendEvent(key, ev); err != nil {
		return fmt.Errorf("failed to append event to session: %w", err)
	}

	return nil
}
