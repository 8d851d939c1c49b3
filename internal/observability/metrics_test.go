package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveRequest("/chat", 200, time.Millisecond)
	m.ObserveRequest("/chat", 201, time.Millisecond)
	m.ObserveRequest("/chat", 400, time.Millisecond)
	m.ObserveRequest("/analyze", 503, time.Millisecond)

	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/chat", "2xx")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/chat", "4xx")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/analyze", "5xx")))
}

func TestMetricsAreIsolatedPerInstance(t *testing.T) {
	a := NewMetrics(nil)
	b := NewMetrics(nil)

	a.PanicsTotal.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.PanicsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PanicsTotal))
}

func TestHandlerExposesSessionsGauge(t *testing.T) {
	m := NewMetrics(func() float64 { return 3 })
	m.ChatIntentsTotal.WithLabelValues("score").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "focusagent_stored_sessions 3")
	assert.True(t,
		strings.Contains(text, `focusagent_chat_answers_total{intent="score"} 1`),
		"missing chat counter in:\n%s", text,
	)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(304))
	assert.Equal(t, "4xx", statusClass(422))
	assert.Equal(t, "5xx", statusClass(500))
}
