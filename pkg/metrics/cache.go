package metrics

import (
	"github.com/loftfs/loft/pkg/cache"
	prom "github.com/loftfs/loft/pkg/metrics/prometheus"
)

// NewEntityCacheMetrics creates a Prometheus-backed cache.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). A nil
// sink disables instrumentation in the cache with zero overhead, so callers
// can pass the result straight through:
//
//	metrics.InitRegistry()
//	apps := apps.NewCache(store, appCacheConfig, metrics.NewEntityCacheMetrics())
func NewEntityCacheMetrics() cache.Metrics {
	if !IsEnabled() {
		return nil
	}
	return prom.NewEntityCacheMetrics(GetRegistry())
}
