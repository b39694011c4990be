package statestore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// storeMetrics holds the per-store Prometheus collectors. It is nil when a
// store is constructed with Spec.MetricsEnabled=false, and its methods are
// no-ops on a nil receiver so metrics stay fully optional.
type storeMetrics struct {
	ops       *prometheus.CounterVec
	opLatency *prometheus.HistogramVec
	conflicts prometheus.Counter
}

func newStoreMetrics(storeName string) *storeMetrics {
	labels := prometheus.Labels{"store": storeName}
	return &storeMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "statestore",
			Name:        "ops_total",
			Help:        "Number of MVCC store operations, by kind and result code.",
			ConstLabels: labels,
		}, []string{"op", "code"}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "statestore",
			Name:        "op_duration_seconds",
			Help:        "Latency of MVCC store operations, by kind.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"op"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "statestore",
			Name:        "revision_conflicts_total",
			Help:        "Number of puts rejected with SMALLER_REVISION.",
			ConstLabels: labels,
		}),
	}
}

// register adds m's collectors to reg. Call once per store; a second
// registration of the same store name will be rejected by the registry.
func (m *storeMetrics) register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	for _, c := range []prometheus.Collector{m.ops, m.opLatency, m.conflicts} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *storeMetrics) observe(op string, code Code, start time.Time) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, code.String()).Inc()
	m.opLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if code == CodeSmallerRevision {
		m.conflicts.Inc()
	}
}
