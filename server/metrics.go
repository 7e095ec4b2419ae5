package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gymkit/hevymcp/catalog"
)

const metricsNamespace = "hevymcp"

// Metrics holds the collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	// counters
	ToolCalls *prometheus.CounterVec

	// histograms
	ToolDuration  *prometheus.HistogramVec
	SearchResults prometheus.Histogram
}

// NewMetrics registers the tool and catalog collectors on a fresh registry.
// The catalog gauges read the store on every scrape.
func NewMetrics(store *catalog.Store) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}
	m.ToolCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "tool",
		Name:      "calls_total",
		Help:      "The total number of MCP tool calls",
	}, []string{"tool", "status"})
	m.ToolDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "tool",
		Name:      "duration_seconds",
		Help:      "Duration of MCP tool calls",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"tool"})
	m.SearchResults = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "search",
		Name:      "results",
		Help:      "Number of results returned per search",
		Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
	})

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "catalog",
		Name:      "exercises",
		Help:      "Exercise templates in the loaded catalog",
	}, func() float64 {
		return float64(store.Snapshot().Len())
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "catalog",
		Name:      "translations",
		Help:      "Spanish titles in the loaded catalog",
	}, func() float64 {
		return float64(len(store.Snapshot().Translations))
	})

	return m
}

// ObserveToolCall records the outcome of one tool call
func (m *Metrics) ObserveToolCall(tool, status string, elapsed time.Duration) {
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
