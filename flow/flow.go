// Package flow implements the model/tool loop that drives a single agent
// turn.
//
// A flow assembles a model request from the agent's instructions and the
// session history, streams the model output as events, executes requested
// tool calls and repeats until the model produces a final answer. Request and
// response processors keep the pipeline modular.
package flow

import (
	"errors"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/model"
	"github.com/oygul/asil/tool"
)

// Error codes attached to error events emitted by flows.
const (
	ErrCodeModel         = "MODEL_ERROR"
	ErrCodeModelLimit    = "MODEL_CALL_LIMIT"
	ErrCodeMaxIterations = "MAX_ITERATIONS"
	ErrCodeProcessor     = "PROCESSOR_ERROR"
)

var (
	// ErrNoModel is returned by Execute when the agent has no model.
	ErrNoModel = errors.New("agent has no model configured")
	// ErrMaxIterations is reported when the tool loop does not converge.
	ErrMaxIterations = errors.New("maximum model/tool iterations reached")
)

// Flow defines the interface for agent execution flows.
type Flow interface {
	// Execute runs the flow asynchronously. The returned channel is closed
	// when the turn is complete.
	Execute(runCtx *core.RunContext) (<-chan core.Event, error)
}

// FlowAgent is the view of an agent a flow needs.
type FlowAgent interface {
	// GetName returns the agent's name, used as event author.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	// ResolveInstructions produces the system prompt for this turn.
	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the tools offered to the model in declaration order.
	GetTools() []tool.Tool

	// IsStreamingEnabled returns whether partial responses are requested.
	IsStreamingEnabled() bool

	// MaxHistoryMessages bounds the conversation history sent to the model.
	MaxHistoryMessages() int

	// MaxIterations bounds model calls per turn; <= 0 means unbounded.
	MaxIterations() int
}

// RequestProcessor processes the request before sending it to the LLM.
type RequestProcessor interface {
	Name() string
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor processes each response received from the LLM.
type ResponseProcessor interface {
	Name() string
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
