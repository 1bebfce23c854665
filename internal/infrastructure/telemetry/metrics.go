package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "traitedesk"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// HTTPDurationBuckets are bucket boundaries for HTTP request duration (seconds).
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// RenderDurationBuckets cover headless browser renders, which can take minutes.
	RenderDurationBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90, 180}
)

// Metrics holds the Prometheus collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	renderDuration *prometheus.HistogramVec
	documents      *prometheus.CounterVec
	importRows     *prometheus.CounterVec
	approvals      *prometheus.CounterVec
	traitesCreated prometheus.Counter
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   HTTPDurationBuckets,
		}, []string{"method", "route"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "render_duration_seconds",
			Help:      "Document render duration in seconds by mode and renderer.",
			Buckets:   RenderDurationBuckets,
		}, []string{"mode", "renderer", "outcome"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "generated_total",
			Help:      "Documents generated by mode and outcome.",
		}, []string{"mode", "outcome"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "CSV import rows by kind and outcome.",
		}, []string{"kind", "outcome"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "decisions_total",
			Help:      "Client approval decisions.",
		}, []string{"decision"}),
		traitesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "traite",
			Name:      "created_total",
			Help:      "Traites created.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.renderDuration,
		m.documents,
		m.importRows,
		m.approvals,
		m.traitesCreated,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request. route is the matched route pattern.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveRender records one renderer attempt
func (m *Metrics) ObserveRender(mode, renderer string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(mode, renderer, outcome(err)).Observe(d.Seconds())
}

// ObserveDocument records one document request result
func (m *Metrics) ObserveDocument(mode string, err error) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(mode, outcome(err)).Inc()
}

// ObserveImport records the rows of one import run
func (m *Metrics) ObserveImport(kind string, imported, failed int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(kind, OutcomeSuccess).Add(float64(imported))
	m.importRows.WithLabelValues(kind, OutcomeFailure).Add(float64(failed))
}

// ObserveApproval records an approve or reject decision
func (m *Metrics) ObserveApproval(decision string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(decision).Inc()
}

// ObserveTraiteCreated counts a created traite
func (m *Metrics) ObserveTraiteCreated() {
	if m == nil {
		return
	}
	m.traitesCreated.Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
