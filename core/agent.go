package core

// Agent is a unit of conversational work. Run receives the per-turn
// RunContext, emits events through it and returns once the turn is complete.
//
// Implementations must respect cancellation of runCtx.Context and must not
// mutate the session directly; state changes travel as StateDelta on emitted
// events.
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Type categorizes the implementation (e.g. "orchestrator", "model").
type AgentInfo struct{ Name, Type string }
