// Package metrics exposes the engine's prometheus instrumentation: one
// registry-backed set of counters, histograms and gauges describing build
// and query activity, independent of any particular Index instance.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric the engine emits, registered against a
// caller-supplied prometheus.Registerer so tests and the CLI's /metrics
// handler can share one instance without relying on the global default
// registerer.
type Registry struct {
	GroupsFormed      *prometheus.CounterVec
	BuildDuration     *prometheus.HistogramVec
	QueryDuration     *prometheus.HistogramVec
	LengthsVisited    *prometheus.HistogramVec
	ClusterPrunes     *prometheus.CounterVec
	IndexedSequences  prometheus.Gauge
}

// NewRegistry constructs and registers every engine metric against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		GroupsFormed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genex",
			Subsystem: "build",
			Name:      "groups_formed_total",
			Help:      "Number of clusters formed per length space, by length.",
		}, []string{"length"}),
		BuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genex",
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Time to build one length space.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"length"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genex",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Time to serve a query, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		LengthsVisited: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genex",
			Subsystem: "query",
			Name:      "lengths_visited",
			Help:      "Number of length spaces visited by a single query's traversal.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}, []string{"operation"}),
		ClusterPrunes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genex",
			Subsystem: "query",
			Name:      "cluster_prunes_total",
			Help:      "Clusters skipped during a query due to a lower-bound prune.",
		}, []string{"operation"}),
		IndexedSequences: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "genex",
			Subsystem: "index",
			Name:      "indexed_sequences",
			Help:      "Total subsequences currently held across all length spaces.",
		}),
	}

	reg.MustRegister(
		m.GroupsFormed,
		m.BuildDuration,
		m.QueryDuration,
		m.LengthsVisited,
		m.ClusterPrunes,
		m.IndexedSequences,
	)

	return m
}
