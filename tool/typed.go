package tool

import (
	"encoding/json"
	"fmt"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/internal/util"
)

// NewTypedTool builds a FunctionTool whose schema is derived from T and whose
// implementation receives the arguments decoded into T.
//
//	type feedArgs struct {
//	  ProductType string `json:"product_type" enum:"FLOWER,BOUQUET"`
//	  Page        int    `json:"page,omitempty"`
//	}
//
//	feed := NewTypedTool("get_feed", "List products", func(tc *core.ToolContext, a feedArgs) (any, error) { ... })
func NewTypedTool[T any](name, description string, fn func(toolCtx *core.ToolContext, args T) (any, error)) *FunctionTool {
	var zero T

	return NewFunctionTool(name, description, util.CreateSchema(zero), func(tc *core.ToolContext, raw map[string]any) (any, error) {
		var args T
		if err := DecodeArgs(raw, &args); err != nil {
			return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeValidation}
		}
		return fn(tc, args)
	})
}

// DecodeArgs converts a decoded argument map into the struct pointed to by out.
func DecodeArgs(raw map[string]any, out any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}

	return nil
}
