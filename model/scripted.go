package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/oygul/asil/core"
)

// ScriptedModel is a deterministic Model for tests. Each Generate call pops
// the next scripted step; a step either answers with text, requests tool
// calls or fails. Requests are recorded for assertions.
type ScriptedModel struct {
	mu       sync.Mutex
	info     Info
	steps    []ScriptStep
	requests []Request
	fallback string
}

// ScriptStep is one scripted model turn.
type ScriptStep struct {
	Text  string
	Calls []core.FunctionCall
	Err   error
	// Reply computes the answer from the request when set, overriding Text.
	Reply func(req Request) string
}

// NewScriptedModel constructs a ScriptedModel answering with steps in order.
// Once exhausted it answers "done".
func NewScriptedModel(steps ...ScriptStep) *ScriptedModel {
	return &ScriptedModel{
		info:     Info{Name: "scripted", Provider: "scripted", SupportsTools: true},
		steps:    steps,
		fallback: "done",
	}
}

// Text returns a step answering with text.
func Text(s string) ScriptStep { return ScriptStep{Text: s} }

// Call returns a step requesting a single tool call with raw JSON args.
func Call(name, args string) ScriptStep {
	return ScriptStep{Calls: []core.FunctionCall{{ID: "call-" + name, Name: name, Arguments: args}}}
}

// Fail returns a step failing with err.
func Fail(err error) ScriptStep { return ScriptStep{Err: err} }

// Push appends steps to the script.
func (m *ScriptedModel) Push(steps ...ScriptStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, steps...)
}

// Requests returns the requests received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 4)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	step := ScriptStep{Text: m.fallback}
	if len(m.steps) > 0 {
		step = m.steps[0]
		m.steps = m.steps[1:]
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		if step.Err != nil {
			errCh <- step.Err
			return
		}

		text := step.Text
		if step.Reply != nil {
			text = step.Reply(req)
		}

		parts := make([]core.Part, 0, len(step.Calls)+1)
		if text != "" {
			if req.Stream {
				respCh <- Response{Partial: true, Content: core.NewTextContent(core.RoleAssistant, text)}
			}
			parts = append(parts, core.TextPart{Text: text})
		}

		finish := "stop"
		for i, c := range step.Calls {
			if c.ID == "" {
				c.ID = fmt.Sprintf("call-%d", i)
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: c})
			finish = "tool_calls"
		}

		respCh <- Response{
			Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
			FinishReason: finish,
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }
