package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/model"
)

func TestBuildMessages_ToolResponsesFollowCalls(t *testing.T) {
	req := model.Request{
		Instructions: "You are Asil.",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "Покажи цветы"),
			{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "get_flowers", Arguments: "{}"}}}},
			{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "get_flowers", Response: map[string]any{"status": "success"}}}}},
		},
	}

	responses, order := collectToolResponses(req)
	assert.Equal(t, []string{"c1"}, order)
	assert.JSONEq(t, `{"status":"success"}`, responses["c1"])

	msgs := buildMessages(req, responses, order)
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
}

func TestSortedIndexes(t *testing.T) {
	agg := map[int64]*aggCall{2: {}, 0: {}, 1: {}}
	assert.Equal(t, []int64{0, 1, 2}, sortedIndexes(agg))
}
