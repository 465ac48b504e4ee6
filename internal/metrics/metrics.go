// Package metrics exposes run statistics in the Prometheus text format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pfrederiksen/sports-calendar/internal/event"
)

const namespace = "sportscal"

// Metrics holds the collectors for calendar runs. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	candidates  prometheus.Counter
	dropped     *prometheus.CounterVec
	records     *prometheus.GaugeVec
	failures    prometheus.Counter
	lastSuccess prometheus.Gauge
	runDuration prometheus.Summary
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.candidates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidates_total",
		Help:      "Candidates extracted from the schedule page",
	})
	m.dropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_total",
		Help:      "Candidates discarded by the normalizer, by reason",
	}, []string{"reason"})
	m.records = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Records in the last generated calendar, by category",
	}, []string{"category"})
	m.failures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dynamic_failures_total",
		Help:      "Runs in which the scraped source was replaced by a placeholder",
	})
	m.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last calendar generated",
	})
	m.runDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Time spent generating a calendar",
	})

	m.registry.MustRegister(
		m.candidates, m.dropped, m.records,
		m.failures, m.lastSuccess, m.runDuration,
	)

	for _, reason := range []string{event.DropBadDate, event.DropBadTime, event.DropStale, event.DropDuplicate} {
		m.dropped.WithLabelValues(reason)
	}
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveNormalize records one normalizer pass.
func (m *Metrics) ObserveNormalize(stats event.Stats) {
	if m == nil {
		return
	}
	m.candidates.Add(float64(stats.Seen))
	for reason, n := range stats.Dropped {
		m.dropped.WithLabelValues(reason).Add(float64(n))
	}
}

// DynamicFailure counts a run whose scraped source failed.
func (m *Metrics) DynamicFailure() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

// RunCompleted records a generated calendar and its per-category record counts.
func (m *Metrics) RunCompleted(at time.Time, took time.Duration, byCategory map[string]int) {
	if m == nil {
		return
	}
	m.records.Reset()
	for category, n := range byCategory {
		m.records.WithLabelValues(category).Set(float64(n))
	}
	m.lastSuccess.Set(float64(at.Unix()))
	m.runDuration.Observe(took.Seconds())
}
