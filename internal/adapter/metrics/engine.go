package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics instruments analysis runs and gate decisions. It satisfies
// the engine's Metrics hook.
type EngineMetrics struct {
	RecordsAnalyzed prometheus.Counter
	RecordsSkipped  prometheus.Counter
	RunDuration     prometheus.Histogram
	GateDecisions   *prometheus.CounterVec
}

// NewEngineMetrics creates and registers engine metrics on the given registry.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		RecordsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_analyzed_total",
			Help:      "Total number of records analyzed across runs.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Total number of malformed or duplicate records skipped.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of one full analysis run in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Total number of outbound gate decisions, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.RecordsAnalyzed, m.RecordsSkipped, m.RunDuration, m.GateDecisions)
	return m
}

// ObserveRun records the outcome of one analysis run.
func (m *EngineMetrics) ObserveRun(duration time.Duration, analyzed, skipped int) {
	m.RecordsAnalyzed.Add(float64(analyzed))
	m.RecordsSkipped.Add(float64(skipped))
	m.RunDuration.Observe(duration.Seconds())
}

// CountDecision records one gate decision by result.
func (m *EngineMetrics) CountDecision(result string) {
	m.GateDecisions.WithLabelValues(result).Inc()
}
