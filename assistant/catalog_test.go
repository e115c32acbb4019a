package assistant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, "root_erp_agent", c.Root.AgentName())
	assert.Contains(t, c.Root.Instruction, "Asil")
	require.Len(t, c.Agents, len(AgentIDs))

	for _, id := range AgentIDs {
		def, ok := c.Agent(id)
		require.True(t, ok, id)
		assert.NotEmpty(t, def.Description, id)
		assert.NotEmpty(t, def.Keywords["en"], id)
		assert.NotEmpty(t, def.Keywords["ru"], id)
		assert.NotEmpty(t, def.Keywords["uz"], id)
		assert.Equal(t, string(id), def.AgentName())
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no root instruction", "agents: []", "root agent has no instruction"},
		{"unknown agent", "root: {instruction: hi}\nagents:\n  - {id: sweets_agent, instruction: x}", `unknown agent "sweets_agent"`},
		{"none declared", "root: {instruction: hi}\nagents:\n  - {id: none, instruction: x}", `"none" cannot be declared`},
		{"duplicate", "root: {instruction: hi}\nagents:\n  - {id: flower_agent, instruction: x}\n  - {id: flower_agent, instruction: y}", "duplicate agent"},
		{"no instruction", "root: {instruction: hi}\nagents:\n  - {id: supply_agent}", "supply_agent has no instruction"},
		{"not yaml", "root: [", "unmarshal catalog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root:
  name: shop
  instruction: Say hello.
agents:
  - id: search_agent
    instruction: Search.
    toolsets: [search]
    keywords:
      en: [find]
`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "shop", c.Root.Name)
	assert.Equal(t, []string{"search"}, c.Agents[0].Toolsets)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, def.Agents, 6)
}

func TestParseAgentID(t *testing.T) {
	id, err := ParseAgentID("order_agent")
	require.NoError(t, err)
	assert.Equal(t, AgentOrder, id)

	id, err = ParseAgentID("none")
	require.NoError(t, err)
	assert.Equal(t, AgentNone, id)

	id, err = ParseAgentID("root_erp_agent")
	assert.Error(t, err)
	assert.Equal(t, AgentNone, id)
}
