package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache operations.
var (
	// CacheHits counts listing reads served from Redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "honeycomb_cache_hits_total",
		Help: "Total metadata cache hits",
	})

	// CacheMisses counts listing reads that went through to the API.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "honeycomb_cache_misses_total",
		Help: "Total metadata cache misses",
	})

	// CacheErrors counts failed cache operations by operation type.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "honeycomb_cache_errors_total",
		Help: "Total cache operation errors by operation",
	}, []string{"operation"})
)
