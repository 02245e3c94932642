package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thecodereport/tcdr/domain"
)

// ServerMetrics holds the Prometheus collectors of the dashboard server.
// Each instance owns its registry so tests can create servers freely.
type ServerMetrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	reloads      *prometheus.CounterVec
	lineCoverage prometheus.Gauge
}

// NewServerMetrics creates and registers the server collectors
func NewServerMetrics() *ServerMetrics {
	m := &ServerMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcdr",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tcdr",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcdr",
			Name:      "test_runs_total",
			Help:      "Test command executions by outcome.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tcdr",
			Name:      "test_run_duration_seconds",
			Help:      "Wall time of test command executions.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcdr",
			Name:      "dashboard_reloads_total",
			Help:      "Dashboard rebuilds from the coverage report by outcome.",
		}, []string{"result"}),
		lineCoverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tcdr",
			Name:      "line_coverage_percent",
			Help:      "Line coverage of the dashboard currently served.",
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.runs, m.runDuration, m.reloads, m.lineCoverage)
	return m
}

// Handler serves the /metrics scrape endpoint
func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *ServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *ServerMetrics) observeRequest(route, method string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *ServerMetrics) observeRun(resp *domain.RunAllResponse) {
	result := "success"
	switch {
	case resp.Timeout:
		result = "timeout"
	case !resp.OK:
		result = "failure"
	}
	m.runs.WithLabelValues(result).Inc()
	if resp.DurationSeconds != nil {
		m.runDuration.Observe(*resp.DurationSeconds)
	}
}

func (m *ServerMetrics) observeReload(content *domain.DashboardContent, err error) {
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
	if v, ok := content.Overview.Totals.Lines.Pct.Float64(); ok {
		m.lineCoverage.Set(v)
	}
}
