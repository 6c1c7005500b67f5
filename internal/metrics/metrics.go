package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EdgeMetrics holds the Prometheus metrics for the edge-router hot path.
type EdgeMetrics struct {
	Dispatches    *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	LookupErrors  *prometheus.CounterVec
	LookupSeconds prometheus.Histogram
}

// NewEdgeMetrics initializes the edge metrics against the given registerer
// (prometheus.DefaultRegisterer in main, a fresh registry in tests).
func NewEdgeMetrics(reg prometheus.Registerer) *EdgeMetrics {
	factory := promauto.With(reg)
	return &EdgeMetrics{
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storegate",
			Subsystem: "dispatch",
			Name:      "decisions_total",
			Help:      "Dispatch decisions by terminal action.",
		}, []string{"action"}), // pass_through, redirect_login, rewrite_tenant, rewrite_not_found
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "storegate",
			Subsystem: "tenant_cache",
			Name:      "hits_total",
			Help:      "Tenant cache hits, positive and negative entries alike.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "storegate",
			Subsystem: "tenant_cache",
			Name:      "misses_total",
			Help:      "Tenant cache misses that triggered a directory lookup.",
		}),
		LookupErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storegate",
			Subsystem: "lookup",
			Name:      "errors_total",
			Help:      "Directory lookups that did not return a definitive outcome.",
		}, []string{"kind"}), // kind: transport, status
		LookupSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storegate",
			Subsystem: "lookup",
			Name:      "duration_seconds",
			Help:      "Directory lookup latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 1.5, 2},
		}),
	}
}
