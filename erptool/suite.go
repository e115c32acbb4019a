package erptool

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/oygul/asil/backend"
	"github.com/oygul/asil/core"
	"github.com/oygul/asil/internal/metrics"
	"github.com/oygul/asil/tool"
)

// Toolset names.
const (
	SetFlowers     = "flowers"
	SetBouquets    = "bouquets"
	SetConsumables = "consumables"
	SetSearch      = "search"
	SetOrders      = "orders"
	SetSupply      = "supply"
	SetAuth        = "auth"
)

// RefreshHint is attached to token_expired error records.
const RefreshHint = "The session token expired. Call refresh_token, then retry the same call."

// Option configures a Suite.
type Option func(*Suite)

// WithMetrics records every tool execution on m.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Suite) { s.metrics = m } }

// Suite owns one instance of every backend tool, shared by all agents.
type Suite struct {
	client   *backend.Client
	metrics  *metrics.Metrics
	registry *tool.Registry
	sets     map[string][]string
}

// NewSuite builds all tools over client.
func NewSuite(client *backend.Client, opts ...Option) *Suite {
	s := &Suite{client: client, registry: tool.NewRegistry(), sets: map[string][]string{}}
	for _, opt := range opts {
		opt(s)
	}

	s.add(SetFlowers, s.flowerTools()...)
	s.add(SetBouquets, s.bouquetTools()...)
	s.add(SetConsumables, s.consumableTools()...)
	feed := s.searchFeed()
	s.add(SetSearch, feed)
	s.add(SetOrders, append([]tool.Tool{feed}, s.orderTools()...)...)
	s.add(SetSupply, s.createSupply())
	s.add(SetAuth, s.refreshToken())

	return s
}

func (s *Suite) add(set string, tools ...tool.Tool) {
	for _, t := range tools {
		s.registry.Add(t)
		s.sets[set] = append(s.sets[set], t.Name())
	}
}

// Registry returns every tool of the suite.
func (s *Suite) Registry() *tool.Registry { return s.registry }

// Toolsets returns the known toolset names, sorted.
func (s *Suite) Toolsets() []string {
	names := make([]string, 0, len(s.sets))
	for n := range s.sets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Toolset returns the tools of the named set.
func (s *Suite) Toolset(name string) ([]tool.Tool, error) {
	names, ok := s.sets[name]
	if !ok {
		return nil, fmt.Errorf("unknown toolset %q", name)
	}
	return s.Lookup(names...)
}

// Lookup resolves tools by name, failing on the first unknown one.
func (s *Suite) Lookup(names ...string) ([]tool.Tool, error) {
	out := make([]tool.Tool, 0, len(names))
	for _, n := range names {
		t, ok := s.registry.Get(n)
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", n)
		}
		out = append(out, t)
	}
	return out, nil
}

// AuthFrom reads the backend credentials from the session state. Missing
// values stay empty; a missing bearer token means the call goes out
// unauthenticated.
func AuthFrom(r core.StateReader) backend.Auth {
	return backend.Auth{
		BearerToken: core.StateString(r, core.StateBearerToken),
		MerchantID:  core.StateString(r, core.StateMerchantID),
		BranchID:    core.StateString(r, core.StateBranchID),
		UserID:      core.StateString(r, core.StateUserID),
		Language:    core.StateString(r, core.StateUserLanguage),
	}
}

type backendFunc[T any] func(ctx context.Context, auth backend.Auth, args T) backend.Result

// define wraps a backend operation as a typed tool.
func define[T any](s *Suite, name, description string, fn backendFunc[T]) tool.Tool {
	return tool.NewTypedTool(name, description, func(tc *core.ToolContext, args T) (any, error) {
		start := time.Now()
		res := fn(tc.Context(), AuthFrom(tc), args)
		s.metrics.ObserveTool(name, !res.OK(), time.Since(start))

		if res.OK() {
			return res.Data, nil
		}

		tc.Logger().Warn("erptool.backend.failed",
			"tool", name, "error_code", res.Code(), "http_status", res.Err.HTTPStatus)

		rec := res.Err.Record()
		if res.Code() == backend.CodeTokenExpired {
			rec["hint"] = RefreshHint
		}
		return rec, nil
	})
}
