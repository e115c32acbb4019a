package flow

import (
	"errors"
	"fmt"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/model"
	"github.com/oygul/asil/tool"
)

// BaseFlow is a single-agent flow implementing the request -> LLM ->
// (optional tool loop) cycle with pluggable pre/post processors.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	executor           FunctionExecutor
}

// NewBaseFlow creates a flow without processors using the default
// order-preserving parallel function executor.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:              agent,
		requestProcessors:  []RequestProcessor{},
		responseProcessors: []ResponseProcessor{},
		executor:           NewParallelFunctionExecutor(FunctionExecutorConfig{PreserveOrder: true}),
	}
}

// AddRequestProcessor appends a request processor; order of registration defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed after each model chunk.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// SetFunctionExecutor replaces the tool call executor.
func (f *BaseFlow) SetFunctionExecutor(e FunctionExecutor) { f.executor = e }

// Execute launches the flow asynchronously and returns a channel of Events.
// The channel is closed when a final response is emitted or an unrecoverable
// error occurs. Every non-partial event sent on the channel must be
// acknowledged through runCtx.Resume before the flow continues.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, error) {
	if f.agent.GetLLM() == nil {
		return nil, ErrNoModel
	}

	eventChan := make(chan core.Event, 100)

	go func() {
		defer close(eventChan)

		for i := 0; ; i++ {
			if max := f.agent.MaxIterations(); max > 0 && i >= max {
				f.emitError(runCtx, eventChan, ErrCodeMaxIterations, ErrMaxIterations)
				return
			}

			last := f.runOnce(runCtx, eventChan)
			if last == nil || last.IsError() {
				return
			}

			if len(last.GetFunctionResponses()) > 0 && !last.IsFinalResponse() {
				continue
			}

			if last.IsPartial() {
				runCtx.LogWarn("flow.partial_tail", "agent", f.agent.GetName())
			}

			return
		}
	}()

	return eventChan, nil
}

// send delivers ev and waits for persistence of non-partial events.
func (f *BaseFlow) send(runCtx *core.RunContext, eventChan chan<- core.Event, ev core.Event) error {
	select {
	case <-runCtx.Done():
		return runCtx.Err()
	case eventChan <- ev:
	}

	if ev.IsPartial() {
		return nil
	}

	return runCtx.WaitForResume()
}

// emitError converts an internal error to a system Event.
func (f *BaseFlow) emitError(runCtx *core.RunContext, eventChan chan<- core.Event, code string, err error) {
	runCtx.LogError("flow.error", "agent", f.agent.GetName(), "code", code, "error", err)
	_ = f.send(runCtx, eventChan, core.NewErrorEvent(runCtx.RunID, code, err))
}

func (f *BaseFlow) toolDefinitions() ([]model.ToolDefinition, map[string]tool.Tool) {
	tools := f.agent.GetTools()
	if len(tools) == 0 {
		return nil, nil
	}

	defs := make([]model.ToolDefinition, 0, len(tools))
	registry := make(map[string]tool.Tool, len(tools))

	for _, t := range tools {
		registry[t.Name()] = t
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return defs, registry
}

// runOnce performs one model turn (including any tool executions) and returns
// the last emitted Event. A nil return signals termination.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) *core.Event {
	if err := runCtx.RefreshSession(); err != nil && !errors.Is(err, core.ErrNoSessionStore) {
		runCtx.LogWarn("flow.session.refresh_failed", "agent", f.agent.GetName(), "error", err)
	}

	req := &model.Request{Stream: f.agent.IsStreamingEnabled()}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			f.emitError(runCtx, eventChan, ErrCodeProcessor, fmt.Errorf("request processor %s failed: %w", processor.Name(), err))
			return nil
		}
	}

	var registry map[string]tool.Tool
	req.Tools, registry = f.toolDefinitions()

	if runCtx.Limiter != nil {
		if err := runCtx.Limiter.Increment(); err != nil {
			f.emitError(runCtx, eventChan, ErrCodeModelLimit, err)
			return nil
		}
	}

	llm := f.agent.GetLLM()
	runCtx.LogDebug("flow.model.request", "agent", f.agent.GetName(), "provider", llm.Info().Provider,
		"contents", len(req.Contents), "tools", len(req.Tools))

	respCh, errCh := llm.Generate(runCtx.Context, *req)

	var lastEvent *core.Event

	for respCh != nil || errCh != nil {
		select {
		case <-runCtx.Done():
			return nil
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				f.emitError(runCtx, eventChan, ErrCodeModel, err)
				return nil
			}
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}

			for _, processor := range f.responseProcessors {
				if err := processor.ProcessResponse(runCtx, &resp, f.agent); err != nil {
					f.emitError(runCtx, eventChan, ErrCodeProcessor, fmt.Errorf("response processor %s failed: %w", processor.Name(), err))
					return nil
				}
			}

			ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
			content := resp.Content
			ev.Content = &content
			partial := resp.Partial
			ev.Partial = &partial

			if !resp.Partial && len(ev.GetFunctionCalls()) == 0 {
				complete := true
				ev.TurnComplete = &complete
			}

			lastEvent = &ev

			if err := f.send(runCtx, eventChan, ev); err != nil {
				return nil
			}

			if fnCalls := ev.GetFunctionCalls(); len(fnCalls) > 0 && !ev.IsPartial() {
				f.executor.Execute(runCtx, f.agent, registry, fnCalls, func(respEv core.Event) error {
					lastEvent = &respEv
					return f.send(runCtx, eventChan, respEv)
				})
			}
		}
	}

	return lastEvent
}
