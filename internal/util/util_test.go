package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderItem struct {
	ProductID int     `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

type orderArgs struct {
	Status   string      `json:"status" enum:"NEW,DONE" description:"order status"`
	Comment  string      `json:"comment,omitempty"`
	Products []orderItem `json:"products"`
	Page     *int        `json:"page"`
}

func TestCreateSchema_NestedAndEnum(t *testing.T) {
	s := CreateSchema(orderArgs{})
	props := s["properties"].(map[string]any)

	status := props["status"].(map[string]any)
	assert.Equal(t, []string{"NEW", "DONE"}, status["enum"])
	assert.Equal(t, "order status", status["description"])

	products := props["products"].(map[string]any)
	assert.Equal(t, "array", products["type"])
	items := products["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
	assert.Contains(t, items["properties"], "productId")

	assert.ElementsMatch(t, []string{"status", "products"}, RequiredFields(s))
}

type pageArgs struct {
	Page  *int `json:"page,omitempty"`
	Limit *int `json:"limit,omitempty"`
}

type filteredOrderArgs struct {
	pageArgs
	Status string `json:"status"`
}

func TestCreateSchema_FlattensEmbedded(t *testing.T) {
	s := CreateSchema(filteredOrderArgs{})
	props := s["properties"].(map[string]any)

	assert.Contains(t, props, "page")
	assert.Contains(t, props, "limit")
	assert.NotContains(t, props, "pageArgs")
	assert.Equal(t, []string{"status"}, RequiredFields(s))
}

func TestValidateParameters(t *testing.T) {
	s := CreateSchema(orderArgs{})

	require.NoError(t, ValidateParameters(map[string]any{"status": "NEW", "products": []any{}}, s))

	err := ValidateParameters(map[string]any{"products": []any{}}, s)
	require.Error(t, err)
	assert.Equal(t, "status", err.(*ValidationError).Field)

	err = ValidateParameters(map[string]any{"status": "LOST", "products": []any{}}, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")

	err = ValidateParameters(map[string]any{"status": "NEW", "products": "x"}, s)
	require.Error(t, err)
}

func TestValidateParameters_RequiredFromJSON(t *testing.T) {
	s := map[string]any{"type": "object", "required": []any{"id"}, "properties": map[string]any{"id": map[string]any{"type": "integer"}}}
	require.Error(t, ValidateParameters(map[string]any{}, s))
	require.Error(t, ValidateParameters(map[string]any{"id": 1.5}, s))
	require.NoError(t, ValidateParameters(map[string]any{"id": float64(3)}, s))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate(`Reply in {{default "en" .user_language}}. Missing: [{{.nope}}]`, map[string]any{"user_language": "ru"})
	require.NoError(t, err)
	assert.Equal(t, "Reply in ru. Missing: []", out)

	out, err = RenderTemplate("Use <b>HTML</b> & plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "Use <b>HTML</b> & plain", out)

	_, err = RenderTemplate("{{ .broken", nil)
	require.Error(t, err)
}
