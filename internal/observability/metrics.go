// Package observability defines the Prometheus metrics exported by
// the agent.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "focusagent"

// Metrics holds the agent's collectors. Each Metrics owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts handled requests.
	// Labels: route, status (HTTP status code class, e.g. 2xx)
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures handler latency.
	// Labels: route
	RequestDuration *prometheus.HistogramVec

	// PrimaryIssuesTotal counts analyses by primary issue.
	PrimaryIssuesTotal *prometheus.CounterVec

	// ChatIntentsTotal counts answered questions by the rule
	// that matched.
	ChatIntentsTotal *prometheus.CounterVec

	// PanicsTotal counts recovered handler panics.
	PanicsTotal prometheus.Counter
}

// NewMetrics creates and registers all collectors. sessions is
// sampled at scrape time for the stored-sessions gauge; nil
// disables the gauge.
func NewMetrics(sessions func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP handler latency in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"route"},
		),
		PrimaryIssuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "analyses_total",
				Help:      "Session analyses by primary issue",
			},
			[]string{"primary_issue"},
		),
		ChatIntentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "chat_answers_total",
				Help:      "Chat answers by matched question intent",
			},
			[]string{"intent"},
		),
		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "panics_total",
				Help:      "Recovered handler panics",
			},
		),
	}

	if sessions != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "stored_sessions",
				Help:      "Number of sessions held in the store",
			},
			sessions,
		)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition
// format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
