// Package prometheus holds the Prometheus implementations of the metric
// sink interfaces defined next to the code they instrument.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/loftfs/loft/pkg/cache"
)

// entityCacheMetrics is the Prometheus implementation of cache.Metrics.
type entityCacheMetrics struct {
	lookups     *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	batchSize   *prometheus.HistogramVec
}

// NewEntityCacheMetrics registers the entity-cache metric families on reg and
// returns the sink. Must be called at most once per registry.
func NewEntityCacheMetrics(reg *prometheus.Registry) cache.Metrics {
	return &entityCacheMetrics{
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "loft_entity_cache_lookups_total",
				Help: "Entity cache lookups by namespace and outcome",
			},
			[]string{"namespace", "outcome"}, // outcome: "hit", "miss", "coalesced"
		),
		fetchErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "loft_entity_cache_fetch_errors_total",
				Help: "Failed backing reads by namespace",
			},
			[]string{"namespace"},
		),
		batchSize: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loft_entity_cache_batch_size",
				Help:    "Deduplicated size of batched backing reads",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"namespace"},
		),
	}
}

func (m *entityCacheMetrics) CacheHit(namespace string) {
	m.lookups.WithLabelValues(namespace, "hit").Inc()
}

func (m *entityCacheMetrics) CacheMiss(namespace string) {
	m.lookups.WithLabelValues(namespace, "miss").Inc()
}

func (m *entityCacheMetrics) CacheCoalesced(namespace string) {
	m.lookups.WithLabelValues(namespace, "coalesced").Inc()
}

func (m *entityCacheMetrics) CacheFetchError(namespace string) {
	m.fetchErrors.WithLabelValues(namespace).Inc()
}

func (m *entityCacheMetrics) CacheBatchFetch(namespace string, size int) {
	m.batchSize.WithLabelValues(namespace).Observe(float64(size))
}
