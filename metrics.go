package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/symsrv/symproxy/cache"
)

var (
	statusCodes *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheSkips  prometheus.Counter

	requestErrors prometheus.Counter

	cachedBytes  prometheus.Counter
	proxiedBytes prometheus.Counter
)

func init() {
	statusCodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_codes",
			Help: "Distribution by status codes and response source",
		},
		[]string{"code", "source"},
	)

	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits",
		Help: "Total number of requests served from the disk cache",
	})

	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses",
		Help: "Total number of requests forwarded upstream",
	})

	cacheSkips = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_skips",
		Help: "Total number of responses not persisted because the cache was at capacity",
	})

	requestErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "request_errors",
		Help: "Total number of upstream fetch failures surfaced as 500",
	})

	cachedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cached_bytes",
		Help: "Total number of body bytes served from the disk cache",
	})

	proxiedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxied_bytes",
		Help: "Total number of body bytes streamed from the upstream store",
	})

	prometheus.MustRegister(statusCodes, cacheHits, cacheMisses, cacheSkips,
		requestErrors, cachedBytes, proxiedBytes)
}

// registerCacheMetrics exposes the live cache state as gauges. Called once
// from main after the cache is constructed.
func registerCacheMetrics(c cache.Cache) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cache_items",
		Help: "Number of live (unexpired) cache entries",
	}, func() float64 {
		return float64(c.Stats().Items)
	}))

	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cache_pending_writes",
		Help: "Number of cache finalize operations in flight",
	}, func() float64 {
		return float64(c.Stats().PendingWrites)
	}))
}
