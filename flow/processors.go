package flow

import (
	"fmt"

	"github.com/oygul/asil/core"
	internalutil "github.com/oygul/asil/internal/util"
	"github.com/oygul/asil/model"
)

// InstructionsProcessor resolves the agent's system prompt and renders it as
// a template against the current session state.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets req.Instructions.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	req.Instructions, err = internalutil.RenderTemplate(instructions, runCtx.StateSnapshot())
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return nil
}

// ContentsProcessor copies the conversation history into the request.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest fills req.Contents with the most recent history entries.
// A window that would start on a tool response is widened backwards so the
// matching function call is always present.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	events := runCtx.GetSessionHistory()

	if limit := agent.MaxHistoryMessages(); limit > 0 && len(events) > limit {
		start := len(events) - limit
		for start > 0 && len(events[start].GetFunctionResponses()) > 0 {
			start--
		}
		events = events[start:]
	}

	contents := make([]core.Content, 0, len(events))

	for _, ev := range events {
		if ev.Content != nil && len(ev.Content.Parts) > 0 {
			contents = append(contents, *ev.Content)
		}
	}

	req.Contents = contents

	return nil
}
