// Package metrics exposes Prometheus collectors for the mapping engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tersemap"

// Cache event labels.
const (
	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheEviction = "eviction"
)

type Metrics struct {
	Ops          *prometheus.CounterVec
	CacheEvents  *prometheus.CounterVec
	CacheEntries prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ops_total",
			Help:      "Number of engine operations by op and result.",
		}, []string{"op", "result"}),
		CacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache hits, misses and evictions.",
		}, []string{"event"}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of tokens currently cached.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Ops, m.CacheEvents, m.CacheEntries)
	}
	return m
}

func (m *Metrics) Op(op, result string) {
	m.Ops.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Cache(event string) {
	m.CacheEvents.WithLabelValues(event).Inc()
}
