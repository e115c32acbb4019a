package assistant

import (
	"fmt"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/internal/metrics"
)

// Orchestrator routes each turn to one specialized agent. Classification
// produces an AgentID; dispatch is a table lookup. A turn the classifier
// cannot place stays with the active agent, so short follow-ups like "yes"
// continue the running conversation. Without an active agent the root agent
// answers.
type Orchestrator struct {
	name        string
	description string
	classifier  Classifier
	agents      map[AgentID]core.Agent
	root        core.Agent
	metrics     *metrics.Metrics
}

var _ core.Agent = (*Orchestrator)(nil)

// NewOrchestrator creates an orchestrator named after root.
func NewOrchestrator(root core.Agent, classifier Classifier, agents map[AgentID]core.Agent, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		name:        root.Name(),
		description: root.Description(),
		classifier:  classifier,
		agents:      agents,
		root:        root,
		metrics:     m,
	}
}

// Name implements core.Agent.
func (o *Orchestrator) Name() string { return o.name }

// Description implements core.Agent.
func (o *Orchestrator) Description() string { return o.description }

// Route picks the agent for the turn in runCtx.
func (o *Orchestrator) Route(runCtx *core.RunContext) (AgentID, core.Agent) {
	text := runCtx.UserContent.Text()

	intent, err := o.classifier.Classify(runCtx.Context, text)
	if err != nil {
		runCtx.LogWarn("orchestrator.classify.failed", "run", runCtx.RunID, "error", err)
		intent = Intent{Agent: AgentNone}
	}

	id := intent.Agent
	if id == AgentNone {
		if active := AgentID(core.StateString(runCtx, core.StateActiveAgent)); o.agents[active] != nil {
			id = active
		}
	}

	target, ok := o.agents[id]
	if !ok {
		return AgentNone, o.root
	}

	return id, target
}

// Run implements core.Agent.
func (o *Orchestrator) Run(runCtx *core.RunContext) error {
	id, target := o.Route(runCtx)
	o.metrics.ObserveRoute(string(id))

	runCtx.LogInfo("orchestrator.route", "run", runCtx.RunID, "agent", id, "target", target.Name())

	if core.StateString(runCtx, core.StateActiveAgent) != string(id) {
		ev := core.NewStateDeltaEvent(runCtx.RunID, o.name, map[string]any{core.StateActiveAgent: string(id)})
		if err := runCtx.Publish(ev); err != nil {
			return fmt.Errorf("record active agent: %w", err)
		}
	}

	return target.Run(runCtx.ForAgent(core.AgentInfo{Name: target.Name(), Type: "model"}))
}
