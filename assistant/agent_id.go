package assistant

import "fmt"

// AgentID identifies a specialized agent. The set is closed.
type AgentID string

// Known agents. AgentNone means no specialized agent applies.
const (
	AgentFlower     AgentID = "flower_agent"
	AgentConsumable AgentID = "consumable_agent"
	AgentBouquet    AgentID = "bouquet_agent"
	AgentSearch     AgentID = "search_agent"
	AgentOrder      AgentID = "order_agent"
	AgentSupply     AgentID = "supply_agent"
	AgentNone       AgentID = "none"
)

// AgentIDs lists the specialized agents, excluding AgentNone.
var AgentIDs = []AgentID{AgentFlower, AgentConsumable, AgentBouquet, AgentSearch, AgentOrder, AgentSupply}

// ParseAgentID converts a label into an AgentID. Unknown labels yield
// AgentNone and an error.
func ParseAgentID(s string) (AgentID, error) {
	id := AgentID(s)
	if id == AgentNone {
		return AgentNone, nil
	}
	for _, known := range AgentIDs {
		if id == known {
			return id, nil
		}
	}
	return AgentNone, fmt.Errorf("unknown agent %q", s)
}

func (id AgentID) String() string { return string(id) }
