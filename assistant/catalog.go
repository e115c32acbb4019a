package assistant

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// AgentDef declares one agent: its prompt and the tools it may call.
// Tools lists individual tool names; Toolsets pulls in whole erptool sets.
type AgentDef struct {
	ID          AgentID             `yaml:"id"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Instruction string              `yaml:"instruction"`
	Tools       []string            `yaml:"tools"`
	Toolsets    []string            `yaml:"toolsets"`
	Keywords    map[string][]string `yaml:"keywords"`
}

// AgentName returns Name, defaulting to the agent id.
func (s AgentDef) AgentName() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.ID)
}

// Catalog is the set of agents the assistant routes between. Agents are
// kept in file order, which breaks ties during keyword classification.
type Catalog struct {
	Root   AgentDef   `yaml:"root"`
	Agents []AgentDef `yaml:"agents"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file; an empty path yields the built-in one.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks that every agent id is known and declared once and that
// the root agent has an instruction.
func (c *Catalog) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Root.Instruction) == "" {
		errs = append(errs, errors.New("root agent has no instruction"))
	}

	seen := map[AgentID]bool{}
	for i, a := range c.Agents {
		id, err := ParseAgentID(string(a.ID))
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("agents[%d]: %w", i, err))
			continue
		case id == AgentNone:
			errs = append(errs, fmt.Errorf("agents[%d]: %q cannot be declared", i, AgentNone))
			continue
		case seen[id]:
			errs = append(errs, fmt.Errorf("agents[%d]: duplicate agent %q", i, id))
		}
		seen[id] = true

		if strings.TrimSpace(a.Instruction) == "" {
			errs = append(errs, fmt.Errorf("agent %s has no instruction", id))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	return nil
}

// Agent returns the definition of id.
func (c *Catalog) Agent(id AgentID) (AgentDef, bool) {
	for _, a := range c.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentDef{}, false
}
