package flow

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/internal/testutil"
	"github.com/oygul/asil/tool"
)

type teMockTool struct {
	name        string
	delay       time.Duration
	result      any
	err         error
	panicMsg    any
	actionState map[string]any
	gotArgs     map[string]any
}

func (mt *teMockTool) Name() string               { return mt.name }
func (mt *teMockTool) Description() string        { return "mock tool" }
func (mt *teMockTool) Parameters() map[string]any { return map[string]any{} }
func (mt *teMockTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	mt.gotArgs = args
	if mt.delay > 0 {
		select {
		case <-time.After(mt.delay):
		case <-tc.Context().Done():
			return nil, tc.Context().Err()
		}
	}
	if mt.panicMsg != nil {
		panic(mt.panicMsg)
	}
	for k, v := range mt.actionState {
		tc.SetState(k, v)
	}
	return mt.result, mt.err
}

func registryOf(tools ...*teMockTool) map[string]tool.Tool {
	m := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		m[t.name] = t
	}
	return m
}

func newTERunContext() *core.RunContext {
	return testutil.NewSessionBuilder("42").RunContext("A")
}

func calls(names ...string) []core.FunctionCall {
	out := make([]core.FunctionCall, len(names))
	for i, n := range names {
		out[i] = core.FunctionCall{ID: n + "-id", Name: n, Arguments: "{}"}
	}
	return out
}

func TestFunctionExecutor_Single(t *testing.T) {
	reg := registryOf(&teMockTool{name: "one", result: 42})
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 4, PreserveOrder: true})

	var events []core.Event
	te.Execute(newTERunContext(), &stubAgent{name: "A"}, reg, calls("one"), func(ev core.Event) error {
		events = append(events, ev)
		return nil
	})

	require.Len(t, events, 1)
	fr := events[0].GetFunctionResponses()
	require.Len(t, fr, 1)
	assert.Equal(t, "one-id", fr[0].ID)
	assert.Equal(t, 42, fr[0].Response)
	assert.Equal(t, "run-test", events[0].InvocationID)
}

func TestFunctionExecutor_ParallelUnordered(t *testing.T) {
	reg := registryOf(
		&teMockTool{name: "slow", delay: 60 * time.Millisecond, result: "s"},
		&teMockTool{name: "fast", delay: 5 * time.Millisecond, result: "f"},
	)
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2})

	var order []string
	start := time.Now()
	te.Execute(newTERunContext(), &stubAgent{name: "A"}, reg, calls("slow", "fast"), func(ev core.Event) error {
		order = append(order, ev.GetFunctionResponses()[0].Name)
		return nil
	})

	require.Len(t, order, 2)
	assert.Equal(t, "fast", order[0])
	assert.Less(t, time.Since(start), 90*time.Millisecond)
}

func TestFunctionExecutor_PreserveOrder(t *testing.T) {
	reg := registryOf(
		&teMockTool{name: "t1", delay: 30 * time.Millisecond, result: 1},
		&teMockTool{name: "t2", delay: 5 * time.Millisecond, result: 2},
	)
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2, PreserveOrder: true})

	var order []string
	te.Execute(newTERunContext(), &stubAgent{name: "A"}, reg, calls("t1", "t2"), func(ev core.Event) error {
		order = append(order, ev.GetFunctionResponses()[0].Name)
		return nil
	})

	assert.Equal(t, []string{"t1", "t2"}, order)
}

func TestFunctionExecutor_ErrorIsolation(t *testing.T) {
	reg := registryOf(&teMockTool{name: "ok", result: "fine"}, &teMockTool{name: "bad", err: errors.New("boom")})
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2})

	var errs int32
	te.Execute(newTERunContext(), &stubAgent{name: "A"}, reg, calls("ok", "bad"), func(ev core.Event) error {
		if ev.GetFunctionResponses()[0].Error != "" {
			atomic.AddInt32(&errs, 1)
		}
		return nil
	})

	assert.EqualValues(t, 1, atomic.LoadInt32(&errs))
}

func TestFunctionExecutor_PanicRecovery(t *testing.T) {
	reg := registryOf(&teMockTool{name: "panic", panicMsg: "boom"})
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{})

	var msg string
	te.Execute(newTERunContext(), &stubAgent{name: "A"}, reg, calls("panic"), func(ev core.Event) error {
		msg = ev.GetFunctionResponses()[0].Error
		return nil
	})

	assert.Contains(t, msg, "panic recovered: boom")
}

func TestFunctionExecutor_ActionsApplied(t *testing.T) {
	reg := registryOf(&teMockTool{name: "act", actionState: map[string]any{"k": "v"}})
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{})

	var evs []core.Event
	te.Execute(newTERunContext(), &stubAgent{name: "A"}, reg, calls("act"), func(ev core.Event) error {
		evs = append(evs, ev)
		return nil
	})

	require.Len(t, evs, 1)
	assert.Equal(t, "v", evs[0].Actions.StateDelta["k"])
}

func TestFunctionExecutor_RepairsMalformedArguments(t *testing.T) {
	mock := &teMockTool{name: "add", result: "ok"}
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{})

	fc := core.FunctionCall{ID: "1", Name: "add", Arguments: `{"name": "rose", "quantity": 5`}

	var fr core.FunctionResponse
	te.Execute(newTERunContext(), &stubAgent{name: "A"}, registryOf(mock), []core.FunctionCall{fc}, func(ev core.Event) error {
		fr = ev.GetFunctionResponses()[0]
		return nil
	})

	assert.Empty(t, fr.Error)
	assert.Equal(t, "rose", mock.gotArgs["name"])
	assert.Equal(t, float64(5), mock.gotArgs["quantity"])
}

func TestParseArguments(t *testing.T) {
	args, err := parseArguments("  ")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = parseArguments("null")
	require.NoError(t, err)
	assert.NotNil(t, args)

	_, err = parseArguments(`[1, 2]`)
	require.Error(t, err)
}
