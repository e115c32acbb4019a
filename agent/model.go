package agent

import (
	"fmt"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/flow"
	"github.com/oygul/asil/model"
	"github.com/oygul/asil/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description        string
	Instruction        Instruction
	EnableStreaming    bool
	MaxHistoryMessages int
	MaxIterations      int
	Tools              []tool.Tool
}

// ModelAgent answers a turn with a language model, calling its registered
// tools until the model produces a final text answer.
type ModelAgent struct {
	BaseAgent
	llm                model.Model
	instruction        Instruction
	tools              *tool.Registry
	enableStreaming    bool
	maxHistoryMessages int
	maxIterations      int
}

var (
	_ core.Agent     = (*ModelAgent)(nil)
	_ flow.FlowAgent = (*ModelAgent)(nil)
)

// NewModelAgent creates a new model-based agent.
//
// Defaults: no streaming, 20 history messages and 8 model calls per turn.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful assistant.", name)),
		MaxHistoryMessages: 20,
		MaxIterations:      8,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		BaseAgent:          NewBaseAgent(name),
		llm:                llm,
		instruction:        opts.Instruction,
		tools:              tool.NewRegistry(opts.Tools...),
		enableStreaming:    opts.EnableStreaming,
		maxHistoryMessages: opts.MaxHistoryMessages,
		maxIterations:      opts.MaxIterations,
	}

	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

// RegisterTools adds tools to the agent's capability set. A tool with an
// already registered name replaces the previous one.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.tools.Add(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	_, ok := a.tools.Get(name)
	return ok
}

// ListTools returns the names of all registered tools in registration order.
func (a *ModelAgent) ListTools() []string { return a.tools.Names() }

// GetName returns the agent's name.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM returns the language model instance.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// GetTools returns the registered tools in registration order.
func (a *ModelAgent) GetTools() []tool.Tool { return a.tools.Tools() }

// IsStreamingEnabled returns whether streaming responses are enabled.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// MaxHistoryMessages returns the maximum number of history messages sent to the model.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// MaxIterations returns the maximum number of model calls per turn.
func (a *ModelAgent) MaxIterations() int { return a.maxIterations }

// ResolveInstructions produces the final instruction string (system prompt)
// by resolving static or dynamic instruction sources.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// Run implements core.Agent. Flow events are forwarded through
// runCtx.EmitEvent so any state staged on the run context is attached to the
// first persisted event.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "run", runCtx.RunID)

	fl := flow.NewSingleAgentFlow(a)

	eventChan, err := fl.Execute(runCtx)
	if err != nil {
		runCtx.LogError("agent.flow.execute.error", "agent", a.Name(), "error", err)
		return fmt.Errorf("flow execution failed: %w", err)
	}

	for event := range eventChan {
		if err := runCtx.EmitEvent(event); err != nil {
			runCtx.LogWarn("agent.run.context_done", "agent", a.Name(), "error", err)
			// drain so the flow goroutine can observe cancellation and exit
			for range eventChan {
			}
			return err
		}

		role := ""
		if event.Content != nil {
			role = event.Content.Role
		}

		runCtx.LogDebug(
			"agent.event.forward",
			"agent", a.Name(),
			"event_id", event.ID,
			"role", role,
			"fn_calls", len(event.GetFunctionCalls()),
		)
	}

	runCtx.LogDebug("agent.flow.execute.complete", "agent", a.Name())

	return nil
}
