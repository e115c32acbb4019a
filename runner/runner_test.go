package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oygul/asil/agent"
	"github.com/oygul/asil/core"
	"github.com/oygul/asil/internal/testutil"
	"github.com/oygul/asil/model"
	"github.com/oygul/asil/session"
	"github.com/oygul/asil/tool"
)

type funcAgent struct {
	name string
	run  func(*core.RunContext) error
}

func (a *funcAgent) Name() string                     { return a.name }
func (a *funcAgent) Description() string              { return "" }
func (a *funcAgent) Run(runCtx *core.RunContext) error { return a.run(runCtx) }

func newStore(t *testing.T, user string) (*session.InMemoryStore, core.SessionKey) {
	t.Helper()
	store, s := testutil.NewSessionBuilder(user).LoggedIn("en", "tok").Store()
	return store, s.Key
}

func TestRunner_RespondReturnsFinalText(t *testing.T) {
	store, key := newStore(t, "1")
	llm := model.NewScriptedModel(model.Text("Hello, I am Asil."))
	r := New(agent.NewModelAgent("asil", llm), func(o *Options) { o.SessionStore = store })

	reply, err := r.Respond(context.Background(), key, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello, I am Asil.", reply)

	s, err := store.Get(key)
	require.NoError(t, err)
	history := s.GetConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Content.Role)
	assert.Equal(t, "hi", history[0].Text())
	assert.Equal(t, "asil", history[1].Author)
}

func TestRunner_ToolStateDeltaPersistedBeforeNextModelCall(t *testing.T) {
	store, key := newStore(t, "2")

	refresh := tool.NewFunctionTool("refresh_token", "", nil, func(tc *core.ToolContext, _ map[string]any) (any, error) {
		tc.SetState(core.StateBearerToken, "fresh")
		return map[string]any{"status": "success"}, nil
	})

	var seen string
	llm := model.NewScriptedModel(
		model.Call("refresh_token", `{}`),
		model.ScriptStep{Reply: func(model.Request) string {
			s, _ := store.Get(key)
			seen = core.StateString(s, core.StateBearerToken)
			return "refreshed"
		}},
	)

	r := New(agent.NewModelAgent("order_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = []tool.Tool{refresh}
	}), func(o *Options) { o.SessionStore = store })

	reply, err := r.Respond(context.Background(), key, "refresh please")
	require.NoError(t, err)
	assert.Equal(t, "refreshed", reply)
	assert.Equal(t, "fresh", seen)
}

func TestRunner_MissingSession(t *testing.T) {
	r := New(&funcAgent{name: "a", run: func(*core.RunContext) error { return nil }})

	_, _, _, err := r.Run(context.Background(), testutil.Key("nobody"), core.NewTextContent(core.RoleUser, "hi"))
	require.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestRunner_NoFinalResponse(t *testing.T) {
	store, key := newStore(t, "3")
	r := New(&funcAgent{name: "silent", run: func(*core.RunContext) error { return nil }},
		func(o *Options) { o.SessionStore = store })

	reply, err := r.Respond(context.Background(), key, "hi")
	require.NoError(t, err)
	assert.Equal(t, NoFinalResponse, reply)
}

func TestRunner_AgentErrorSurfaced(t *testing.T) {
	store, key := newStore(t, "4")
	r := New(&funcAgent{name: "broken", run: func(*core.RunContext) error { return errors.New("kaput") }},
		func(o *Options) { o.SessionStore = store })

	_, err := r.Respond(context.Background(), key, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaput")
}

func TestRunner_ErrorEventSurfaced(t *testing.T) {
	store, key := newStore(t, "5")
	llm := model.NewScriptedModel(model.Fail(errors.New("rate limited")))
	r := New(agent.NewModelAgent("asil", llm), func(o *Options) { o.SessionStore = store })

	_, err := r.Respond(context.Background(), key, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestRunner_ConcurrencyLimitQueues(t *testing.T) {
	store := session.NewInMemoryStore()
	release := make(chan struct{})
	var started atomic.Int32
	r := New(&funcAgent{name: "slow", run: func(rc *core.RunContext) error {
		started.Add(1)
		select {
		case <-release:
		case <-rc.Done():
		}
		return nil
	}}, func(o *Options) {
		o.SessionStore = store
		o.MaxConcurrentInvocations = 2
	})

	const users = 5
	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := range users {
		key := core.SessionKey{AppName: "erp_agent", UserID: fmt.Sprint(i), SessionID: fmt.Sprintf("telegram_%d", i)}
		_, err := store.Create(key, map[string]any{core.StateBearerToken: "tok"})
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Respond(context.Background(), key, "hi")
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), started.Load())

	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(users), started.Load())
}

func TestRunner_QueuedRunHonorsContext(t *testing.T) {
	store, key := newStore(t, "6")
	release := make(chan struct{})
	defer close(release)
	r := New(&funcAgent{name: "slow", run: func(rc *core.RunContext) error {
		select {
		case <-release:
		case <-rc.Done():
		}
		return nil
	}}, func(o *Options) {
		o.SessionStore = store
		o.MaxConcurrentInvocations = 1
	})

	_, _, _, err := r.Run(context.Background(), key, core.NewTextContent(core.RoleUser, "one"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, _, err = r.Run(ctx, key, core.NewTextContent(core.RoleUser, "two"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_Cancel(t *testing.T) {
	store, key := newStore(t, "7")
	started := make(chan struct{})
	r := New(&funcAgent{name: "blocking", run: func(rc *core.RunContext) error {
		close(started)
		<-rc.Done()
		return rc.Err()
	}}, func(o *Options) { o.SessionStore = store })

	runID, events, _, err := r.Run(context.Background(), key, core.NewTextContent(core.RoleUser, "hi"))
	require.NoError(t, err)
	<-started

	require.NoError(t, r.Cancel(runID))
	for range events {
	}

	require.ErrorIs(t, r.Cancel("unknown"), ErrRunNotFound)
}
