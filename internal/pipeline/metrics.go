package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics publishes pipeline observability counters. A nil *Metrics is a
// valid no-op receiver so callers can leave instrumentation unwired.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	entityRows    *prometheus.GaugeVec
	failures      prometheus.Counter
}

// NewMetrics constructs pipeline metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "surveycore",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each generation stage.",
		}, []string{"stage"}),
		entityRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "surveycore",
			Name:      "entity_rows",
			Help:      "Row count per entity in the most recent generated dataset.",
		}, []string{"entity"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "surveycore",
			Name:      "generate_failures_total",
			Help:      "Generation runs aborted by an error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.stageDuration, m.entityRows, m.failures)
	}
	return m
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) setRows(entity string, n int) {
	if m == nil {
		return
	}
	m.entityRows.WithLabelValues(entity).Set(float64(n))
}

func (m *Metrics) incFailure() {
	if m == nil {
		return
	}
	m.failures.Inc()
}
