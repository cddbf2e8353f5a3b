// Package observe holds the observability glue: Prometheus collectors,
// the build-event hub feeding the dashboard stream, and tracing setup.
package observe

import (
	"github.com/prometheus/client_golang/prometheus"

	ctxengine "github.com/braidhq/braid/internal/context"
)

// Metrics tracks context-engine counters exposed on /metrics.
type Metrics struct {
	builds      prometheus.Counter
	dropped     prometheus.Counter
	compactions *prometheus.CounterVec
	utilization prometheus.Histogram
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "braid_prompt_builds_total",
			Help: "Number of prompt builds.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "braid_messages_dropped_total",
			Help: "Messages that did not fit the history window.",
		}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "braid_compactions_total",
			Help: "Compaction attempts by outcome.",
		}, []string{"outcome"}),
		utilization: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "braid_context_utilization",
			Help:    "Fraction of the context window consumed by assembled prompts.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}

	reg.MustRegister(m.builds, m.dropped, m.compactions, m.utilization)
	return m
}

// RecordBuild records the outcome of one prompt build.
func (m *Metrics) RecordBuild(result ctxengine.BuildResult) {
	m.builds.Inc()
	m.dropped.Add(float64(result.DroppedMessages))
	m.utilization.Observe(result.Breakdown.Utilization)

	if result.DroppedMessages > 0 {
		if result.Breakdown.Compacted {
			m.compactions.WithLabelValues("success").Inc()
		} else {
			m.compactions.WithLabelValues("skipped").Inc()
		}
	}
}
