// Package assistant defines the Asil agents and routes user turns between
// them.
//
// The agents are declared in an embedded YAML catalog. Build turns the
// catalog into model agents wired to the erptool toolsets and returns an
// Orchestrator that picks one of them per turn.
package assistant

import (
	"fmt"

	"github.com/oygul/asil/agent"
	"github.com/oygul/asil/core"
	"github.com/oygul/asil/erptool"
	"github.com/oygul/asil/internal/metrics"
	"github.com/oygul/asil/model"
	"github.com/oygul/asil/tool"
)

// Router modes accepted by NewClassifier.
const (
	RouterKeyword = "keyword"
	RouterModel   = "model"
)

// Options configures Build.
type Options struct {
	// Classifier overrides the router; nil means keyword routing.
	Classifier Classifier
	Metrics    *metrics.Metrics
	// Agent adjusts every model agent's options.
	Agent func(o *agent.ModelAgentOptions)
}

// Build creates one model agent per catalog entry plus the root agent and
// returns the orchestrator over them.
func Build(c *Catalog, llm model.Model, suite *erptool.Suite, opts Options) (*Orchestrator, error) {
	agents := make(map[AgentID]core.Agent, len(c.Agents))

	for _, def := range c.Agents {
		tools, err := resolveTools(suite, def)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", def.ID, err)
		}
		agents[def.ID] = newModelAgent(def, llm, tools, opts.Agent)
	}

	root := newModelAgent(c.Root, llm, nil, opts.Agent)

	classifier := opts.Classifier
	if classifier == nil {
		classifier = NewKeywordClassifier(c)
	}

	return NewOrchestrator(root, classifier, agents, opts.Metrics), nil
}

// NewClassifier returns the router for mode. The model router consults the
// keyword classifier first and asks the model only when keywords are
// missing or ambiguous.
func NewClassifier(mode string, llm model.Model, c *Catalog) (Classifier, error) {
	switch mode {
	case "", RouterKeyword:
		return NewKeywordClassifier(c), nil
	case RouterModel:
		return NewChainClassifier(NewKeywordClassifier(c), NewModelClassifier(llm, c)), nil
	default:
		return nil, fmt.Errorf("unknown router mode %q", mode)
	}
}

func resolveTools(suite *erptool.Suite, def AgentDef) ([]tool.Tool, error) {
	reg := tool.NewRegistry()

	for _, set := range def.Toolsets {
		tools, err := suite.Toolset(set)
		if err != nil {
			return nil, err
		}
		for _, t := range tools {
			reg.Add(t)
		}
	}

	tools, err := suite.Lookup(def.Tools...)
	if err != nil {
		return nil, err
	}
	for _, t := range tools {
		reg.Add(t)
	}

	return reg.Tools(), nil
}

func newModelAgent(def AgentDef, llm model.Model, tools []tool.Tool, adjust func(*agent.ModelAgentOptions)) *agent.ModelAgent {
	return agent.NewModelAgent(def.AgentName(), llm, func(o *agent.ModelAgentOptions) {
		o.Description = def.Description
		o.Instruction = agent.NewInstructionFromText(def.Instruction)
		o.Tools = tools
		if adjust != nil {
			adjust(o)
		}
	})
}
