// Package metrics records snippet processing counters with Prometheus.
//
// docgen is a short-lived command, so metrics are not served over HTTP.
// They are written once at the end of a run in the text exposition format,
// ready for the node exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docgen"

// Snippet outcomes.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
	OutcomeCached = "cached"
)

// Document results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors of one run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	snippets  *prometheus.CounterVec
	documents *prometheus.CounterVec
	execution prometheus.Histogram
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		snippets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snippets_total",
			Help:      "Code snippets processed, by outcome.",
		}, []string{"outcome"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by result.",
		}, []string{"result"}),
		execution: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_seconds",
			Help:      "Wall time of build-and-run invocations.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
	m.registry.MustRegister(m.snippets, m.documents, m.execution)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Snippet counts a processed snippet.
func (m *Metrics) Snippet(outcome string) {
	if m == nil {
		return
	}
	m.snippets.WithLabelValues(outcome).Inc()
}

// Document counts a processed document.
func (m *Metrics) Document(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.documents.WithLabelValues(result).Inc()
}

// ObserveExecution records the duration of one build-and-run invocation.
func (m *Metrics) ObserveExecution(d time.Duration) {
	if m == nil {
		return
	}
	m.execution.Observe(d.Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
