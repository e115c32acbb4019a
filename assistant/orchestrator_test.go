package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oygul/asil/agent"
	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/core"
	"github.com/oygul/asil/erptool"
	"github.com/oygul/asil/internal/metrics"
	"github.com/oygul/asil/internal/testutil"
	"github.com/oygul/asil/model"
)

func build(t *testing.T, llm model.Model, opts Options) *Orchestrator {
	t.Helper()
	o, err := Build(testCatalog(t), llm, erptool.NewSuite(backend.New("")), opts)
	require.NoError(t, err)
	return o
}

// runTurn runs o for text and returns the emitted events.
func runTurn(t *testing.T, o *Orchestrator, sb *testutil.SessionBuilder, text string) []core.Event {
	t.Helper()

	emit := make(chan core.Event, 64)
	rc := sb.RunContextWith(o.Name(), emit, nil)
	rc.UserContent = core.NewTextContent(core.RoleUser, text)

	require.NoError(t, o.Run(rc))
	close(emit)

	var evs []core.Event
	for ev := range emit {
		evs = append(evs, ev)
	}
	return evs
}

func finalAnswer(evs []core.Event) (author, text string) {
	for _, ev := range evs {
		if ev.IsFinalResponse() && ev.Content != nil {
			author, text = ev.Author, ev.Content.Text()
		}
	}
	return author, text
}

func TestOrchestrator_RoutesByIntent(t *testing.T) {
	m := metrics.NewMetrics()
	llm := model.NewScriptedModel(model.Text("You have 12 roses."))
	o := build(t, llm, Options{Metrics: m})

	evs := runTurn(t, o, testutil.NewSessionBuilder("42").LoggedIn("en", "tok"), "How many roses are in stock?")

	require.NotEmpty(t, evs)
	assert.Equal(t, "root_erp_agent", evs[0].Author)
	assert.Equal(t, map[string]any{core.StateActiveAgent: "flower_agent"}, evs[0].Actions.StateDelta)

	author, text := finalAnswer(evs)
	assert.Equal(t, "flower_agent", author)
	assert.Equal(t, "You have 12 roses.", text)

	req := llm.Requests()[0]
	assert.Contains(t, req.Instructions, "ERP Flower Management Assistant")
	assert.Contains(t, req.Instructions, "Answer in the user's language (en)")

	totals, err := m.Totals()
	require.NoError(t, err)
	assert.Equal(t, float64(1), totals["agent_routes_total"])
}

func TestOrchestrator_FollowUpStaysWithActiveAgent(t *testing.T) {
	o := build(t, model.NewScriptedModel(model.Text("Order created.")), Options{})
	sb := testutil.NewSessionBuilder("42").LoggedIn("ru", "tok").State(core.StateActiveAgent, "order_agent")

	evs := runTurn(t, o, sb, "да")

	author, _ := finalAnswer(evs)
	assert.Equal(t, "order_agent", author)
	for _, ev := range evs {
		assert.NotContains(t, ev.Actions.StateDelta, core.StateActiveAgent, "active agent unchanged")
	}
}

func TestOrchestrator_SwitchesAgentOnNewIntent(t *testing.T) {
	o := build(t, model.NewScriptedModel(), Options{})
	sb := testutil.NewSessionBuilder("42").LoggedIn("en", "tok").State(core.StateActiveAgent, "order_agent")

	evs := runTurn(t, o, sb, "Record a supply of 40 tulips")

	author, _ := finalAnswer(evs)
	assert.Equal(t, "supply_agent", author)
	assert.Equal(t, "supply_agent", evs[0].Actions.StateDelta[core.StateActiveAgent])
}

func TestOrchestrator_RootAnswersUnroutedTurns(t *testing.T) {
	llm := model.NewScriptedModel(model.Text("Hi, I am Asil."))
	o := build(t, llm, Options{})

	evs := runTurn(t, o, testutil.NewSessionBuilder("42").LoggedIn("uz", "tok"), "Salom!")

	author, text := finalAnswer(evs)
	assert.Equal(t, "root_erp_agent", author)
	assert.Equal(t, "Hi, I am Asil.", text)
	assert.Equal(t, "none", evs[0].Actions.StateDelta[core.StateActiveAgent])
	assert.Empty(t, llm.Requests()[0].Tools)
	assert.Contains(t, llm.Requests()[0].Instructions, "(uz)")
}

func TestOrchestrator_ClassifierErrorFallsBack(t *testing.T) {
	failing := ClassifierFunc(func(context.Context, string) (Intent, error) {
		return Intent{}, errors.New("router down")
	})
	o := build(t, model.NewScriptedModel(), Options{Classifier: failing})
	sb := testutil.NewSessionBuilder("42").LoggedIn("en", "tok").State(core.StateActiveAgent, "bouquet_agent")

	author, _ := finalAnswer(runTurn(t, o, sb, "anything"))

	assert.Equal(t, "bouquet_agent", author)
}

func TestBuild_WiresToolsets(t *testing.T) {
	o := build(t, model.NewScriptedModel(), Options{
		Agent: func(opts *agent.ModelAgentOptions) { opts.MaxIterations = 3 },
	})

	tools := func(id AgentID) []string {
		a, ok := o.agents[id].(*agent.ModelAgent)
		require.True(t, ok)
		assert.Equal(t, 3, a.MaxIterations())
		return a.ListTools()
	}

	assert.Equal(t, []string{
		"search_feed", "get_payment_types", "create_order", "get_orders_by_status", "confirm_order", "cancel_order", "refresh_token",
	}, tools(AgentOrder))
	assert.Equal(t, []string{"search_feed"}, tools(AgentSearch))
	assert.Equal(t, []string{"create_supply", "refresh_token"}, tools(AgentSupply))
	assert.Contains(t, tools(AgentConsumable), "get_all_measurement_types")
	assert.Len(t, tools(AgentFlower), 6)
	assert.Len(t, tools(AgentBouquet), 6)
}

func TestBuild_UnknownTool(t *testing.T) {
	c := testCatalog(t)
	c.Agents[0].Tools = []string{"launch_rocket"}

	_, err := Build(c, model.NewScriptedModel(), erptool.NewSuite(backend.New("")), Options{})

	assert.ErrorContains(t, err, `unknown tool "launch_rocket"`)
}
