// Package gemini provides an implementation of model.Model backed by the
// Google Gemini API through google.golang.org/genai.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/internal/util"
	"github.com/oygul/asil/model"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// Options configure the Gemini model adapter.
type Options struct {
	// Model should not start with "models/".
	Model           string
	Temperature     float64
	MaxOutputTokens int32
	APIKey          string
}

// Model wraps genai.Client behind model.Model.
type Model struct {
	client *genai.Client
	opts   Options
}

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// NewModel creates a client for the Gemini API. An empty APIKey lets the SDK
// read GEMINI_API_KEY / GOOGLE_API_KEY from the environment.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions(optFns)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient wraps an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: defaultOptions(optFns)}
}

// Generate implements model.Model. Streaming requests are served by a
// single non-partial response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		contents := convContents(req.Contents)
		if len(contents) == 0 {
			errCh <- errors.New("no contents")
			return
		}

		resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, m.config(req))
		if err != nil {
			errCh <- fmt.Errorf("gemini api error: %w", err)
			return
		}

		if len(resp.Candidates) == 0 {
			errCh <- errors.New("no candidates")
			return
		}

		cand := resp.Candidates[0]
		switch cand.FinishReason {
		case genai.FinishReasonStop, genai.FinishReasonMaxTokens, genai.FinishReasonUnspecified, "":
		default:
			errCh <- fmt.Errorf("unexpected finish reason: %s", cand.FinishReason)
			return
		}

		var (
			sb    strings.Builder
			parts []core.Part
		)

		if cand.Content != nil {
			for i, p := range cand.Content.Parts {
				switch {
				case p.FunctionCall != nil:
					b, _ := json.Marshal(p.FunctionCall.Args)
					id := p.FunctionCall.ID
					if id == "" {
						id = fmt.Sprintf("%s-%d", p.FunctionCall.Name, i)
					}
					parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
						ID:        id,
						Name:      p.FunctionCall.Name,
						Arguments: string(b),
					}})
				case p.Text != "" && !p.Thought:
					sb.WriteString(p.Text)
				}
			}
		}

		if sb.Len() > 0 {
			parts = append([]core.Part{core.TextPart{Text: sb.String()}}, parts...)
		}

		r := model.Response{
			ID:           resp.ResponseID,
			Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
			FinishReason: strings.ToLower(string(cand.FinishReason)),
		}
		if u := resp.UsageMetadata; u != nil {
			r.Usage = &model.TokenUsage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
				TotalTokens:      int(u.TotalTokenCount),
			}
		}

		out <- r
	}()

	return out, errCh
}

func (m *Model) config(req model.Request) *genai.GenerateContentConfig {
	temp := float32(m.opts.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: m.opts.MaxOutputTokens,
	}

	if req.Instructions != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.Instructions)}}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  convSchema(t.Function.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return cfg
}

// convContents maps roles onto Gemini's "user" / "model" and merges
// consecutive turns of the same role. Tool responses are user turns.
func convContents(in []core.Content) []*genai.Content {
	var (
		out  []*genai.Content
		last *genai.Content
	)

	for _, c := range in {
		var (
			role  string
			parts []*genai.Part
		)

		switch c.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			role = roleModel
		default:
			role = roleUser
		}

		for _, p := range c.Parts {
			switch v := p.(type) {
			case core.TextPart:
				if v.Text != "" {
					parts = append(parts, genai.NewPartFromText(v.Text))
				}
			case core.FunctionCallPart:
				args := map[string]any{}
				if v.FunctionCall.Arguments != "" {
					if err := json.Unmarshal([]byte(v.FunctionCall.Arguments), &args); err != nil {
						args = map[string]any{"text": v.FunctionCall.Arguments}
					}
				}
				part := genai.NewPartFromFunctionCall(v.FunctionCall.Name, args)
				part.FunctionCall.ID = v.FunctionCall.ID
				parts = append(parts, part)
			case core.FunctionResponsePart:
				var result map[string]any
				if err := json.Unmarshal([]byte(v.FunctionResponse.ResponseText()), &result); err != nil {
					result = map[string]any{"output": v.FunctionResponse.ResponseText()}
				}
				part := genai.NewPartFromFunctionResponse(v.FunctionResponse.Name, result)
				part.FunctionResponse.ID = v.FunctionResponse.ID
				parts = append(parts, part)
			}
		}

		if len(parts) == 0 {
			continue
		}

		if last != nil && last.Role == role {
			last.Parts = append(last.Parts, parts...)
			continue
		}

		last = &genai.Content{Role: role, Parts: parts}
		out = append(out, last)
	}

	return out
}

// convSchema converts a JSON schema map into genai.Schema.
func convSchema(s map[string]any) *genai.Schema {
	if s == nil {
		return nil
	}

	gs := &genai.Schema{}

	switch s["type"] {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "integer":
		gs.Type = genai.TypeInteger
	case "number":
		gs.Type = genai.TypeNumber
	case "boolean":
		gs.Type = genai.TypeBoolean
	default:
		gs.Type = genai.TypeString
	}

	if d, ok := s["description"].(string); ok {
		gs.Description = d
	}

	switch e := s["enum"].(type) {
	case []string:
		gs.Enum = e
	case []any:
		for _, v := range e {
			gs.Enum = append(gs.Enum, fmt.Sprintf("%v", v))
		}
	}

	if items, ok := s["items"].(map[string]any); ok {
		gs.Items = convSchema(items)
	}

	if props, ok := s["properties"].(map[string]any); ok {
		gs.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				gs.Properties[name] = convSchema(pm)
			}
		}
	}

	gs.Required = util.RequiredFields(s)

	return gs
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
