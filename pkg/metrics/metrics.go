// Package metrics exposes Prometheus collectors for the compile pipeline:
// total compiles, diagnostics emitted, per-stage duration, and instructions
// produced by the code generator, following the reference compiler's
// Metrics struct (a registry plus a handful of named CounterVec/
// HistogramVec fields) with HTTP request metrics swapped for compile-job
// metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the compile pipeline records to.
type Metrics struct {
	compilesTotal      *prometheus.CounterVec
	diagnosticsTotal   *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	instructionsEmitted prometheus.Histogram

	registry *prometheus.Registry
}

// Config names the Prometheus namespace/subsystem these collectors register under.
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig returns the compiler's namespace/subsystem pair.
func DefaultConfig() Config {
	return Config{Namespace: "gembiler", Subsystem: "compile"}
}

// New creates and registers the compiler's metrics collectors.
func New(cfg Config) *Metrics {
	if cfg.Namespace == "" {
		cfg = DefaultConfig()
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.compilesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "compiles_total",
		Help:      "Total number of compile invocations by result.",
	}, []string{"result"})

	m.diagnosticsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "diagnostics_total",
		Help:      "Total number of verifier diagnostics emitted, by category.",
	}, []string{"category"})

	m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Wall-clock duration of one pipeline stage.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"stage"})

	m.instructionsEmitted = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "instructions_emitted",
		Help:      "Number of VM instructions emitted per successful compile.",
		Buckets:   prometheus.ExponentialBuckets(8, 2, 12),
	})

	registry.MustRegister(m.compilesTotal, m.diagnosticsTotal, m.stageDuration, m.instructionsEmitted)

	return m
}

// RecordCompile records the terminal outcome of one compile invocation.
func (m *Metrics) RecordCompile(result string) {
	m.compilesTotal.WithLabelValues(result).Inc()
}

// RecordDiagnostic records one verifier diagnostic by category.
func (m *Metrics) RecordDiagnostic(category string) {
	m.diagnosticsTotal.WithLabelValues(category).Inc()
}

// ObserveStage records how long one pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveInstructions records the size of a successful compile's output.
func (m *Metrics) ObserveInstructions(n int) {
	m.instructionsEmitted.Observe(float64(n))
}

// Handler returns the /metrics HTTP handler for gembiler serve.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
