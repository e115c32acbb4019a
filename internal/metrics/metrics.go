// Package metrics holds the Prometheus collectors of the assistant.
package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Backend metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	// Tool metrics
	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	// Routing metrics
	AgentRoutesTotal *prometheus.CounterVec

	// Telegram metrics
	TelegramMessagesReceivedTotal prometheus.Counter
	TelegramMessagesSentTotal     prometheus.Counter
	TelegramErrorsTotal           prometheus.Counter
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		BackendRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_requests_total",
				Help: "Total number of OyGul backend requests",
			},
			[]string{"operation", "code"},
		),
		BackendRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_request_duration_seconds",
				Help:    "Duration of OyGul backend requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),

		AgentRoutesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_routes_total",
				Help: "Total number of turns routed to each agent",
			},
			[]string{"agent_id"},
		),

		TelegramMessagesReceivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_messages_received_total",
				Help: "Total number of Telegram messages received",
			},
		),
		TelegramMessagesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_messages_sent_total",
				Help: "Total number of Telegram messages sent",
			},
		),
		TelegramErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_errors_total",
				Help: "Total number of Telegram errors",
			},
		),
	}

	m.registry.MustRegister(
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.ToolExecutionsTotal,
		m.ToolExecutionDuration,
		m.AgentRoutesTotal,
		m.TelegramMessagesReceivedTotal,
		m.TelegramMessagesSentTotal,
		m.TelegramErrorsTotal,
	)

	return m
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveBackend records one backend request. A nil receiver is a no-op.
func (m *Metrics) ObserveBackend(operation, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequestsTotal.WithLabelValues(operation, code).Inc()
	m.BackendRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveTool records one tool execution. A nil receiver is a no-op.
func (m *Metrics) ObserveTool(name string, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if failed {
		status = "error"
	}
	m.ToolExecutionsTotal.WithLabelValues(name, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveRoute records a routing decision. A nil receiver is a no-op.
func (m *Metrics) ObserveRoute(agentID string) {
	if m == nil {
		return
	}
	m.AgentRoutesTotal.WithLabelValues(agentID).Inc()
}

// Telegram event kinds accepted by ObserveTelegram.
const (
	TelegramReceived = "received"
	TelegramSent     = "sent"
	TelegramError    = "error"
)

// ObserveTelegram counts one Telegram event of kind. A nil receiver is a
// no-op.
func (m *Metrics) ObserveTelegram(kind string) {
	if m == nil {
		return
	}
	switch kind {
	case TelegramReceived:
		m.TelegramMessagesReceivedTotal.Inc()
	case TelegramSent:
		m.TelegramMessagesSentTotal.Inc()
	case TelegramError:
		m.TelegramErrorsTotal.Inc()
	}
}

// Totals sums every counter family by name, for the shutdown log line.
func (m *Metrics) Totals() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				totals[mf.GetName()] += c.GetValue()
			}
		}
	}

	return totals, nil
}

// KeyValues flattens Totals into sorted logger arguments.
func KeyValues(totals map[string]float64) []any {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, 0, 2*len(names))
	for _, name := range names {
		args = append(args, name, totals[name])
	}
	return args
}
