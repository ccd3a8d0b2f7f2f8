package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acme/bulk-caller/internal/domain"
)

// Metrics holds the dispatch counters exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	lines        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	batches      *prometheus.CounterVec
	active       prometheus.Gauge
}

// NewMetrics registers the application metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		lines: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bulkcaller",
			Subsystem: "dispatch",
			Name:      "lines_total",
			Help:      "Input lines processed, by outcome",
		}, []string{"outcome"}),
		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bulkcaller",
			Subsystem: "dispatch",
			Name:      "call_duration_seconds",
			Help:      "Latency of call-placement requests",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"outcome"}),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bulkcaller",
			Subsystem: "dispatch",
			Name:      "batches_total",
			Help:      "Batches finished, by final status",
		}, []string{"status"}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "bulkcaller",
			Subsystem: "dispatch",
			Name:      "active_batches",
			Help:      "Batches currently dispatching",
		}),
	}
}

// OutcomeLabel maps a result to its metric label.
func OutcomeLabel(res domain.CallResult) string {
	if res.Success {
		return "success"
	}
	if res.Error == nil {
		return "unknown"
	}
	return string(res.Error.Kind) + "_error"
}

// ObserveLine counts one processed line. Elapsed is only recorded for lines
// that were actually submitted.
func (m *Metrics) ObserveLine(res domain.CallResult, elapsed time.Duration) {
	label := OutcomeLabel(res)
	m.lines.WithLabelValues(label).Inc()
	if elapsed > 0 {
		m.callDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	}
}

// BatchStarted marks a batch as dispatching.
func (m *Metrics) BatchStarted() {
	m.active.Inc()
}

// BatchFinished records the final status of a batch.
func (m *Metrics) BatchFinished(status domain.RunStatus) {
	m.active.Dec()
	m.batches.WithLabelValues(string(status)).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
