package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	require.NotNil(t, m.Registry())
	assert.NotNil(t, m.BackendRequestsTotal)
	assert.NotNil(t, m.ToolExecutionsTotal)
	assert.NotNil(t, m.TelegramErrorsTotal)
}

func TestObserveHelpers(t *testing.T) {
	m := NewMetrics()

	m.ObserveBackend("get flowers", "ok", 20*time.Millisecond)
	m.ObserveBackend("get flowers", "token_expired", 5*time.Millisecond)
	m.ObserveTool("get_flowers", false, time.Millisecond)
	m.ObserveTool("get_flowers", true, time.Millisecond)
	m.ObserveRoute("flower_agent")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("get flowers", "token_expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolExecutionsTotal.WithLabelValues("get_flowers", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AgentRoutesTotal.WithLabelValues("flower_agent")))

	totals, err := m.Totals()
	require.NoError(t, err)
	assert.Equal(t, 2.0, totals["backend_requests_total"])
	assert.Equal(t, 2.0, totals["tool_executions_total"])

	kv := KeyValues(totals)
	require.Len(t, kv, 2*len(totals))
	assert.Equal(t, "agent_routes_total", kv[0])
}

func TestNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackend("x", "ok", 0)
		m.ObserveTool("x", false, 0)
		m.ObserveRoute("x")
		m.ObserveTelegram(TelegramSent)
	})
}

func TestObserveTelegram(t *testing.T) {
	m := NewMetrics()

	m.ObserveTelegram(TelegramReceived)
	m.ObserveTelegram(TelegramReceived)
	m.ObserveTelegram(TelegramSent)
	m.ObserveTelegram("unknown")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TelegramMessagesReceivedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TelegramMessagesSentTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TelegramErrorsTotal))
}
