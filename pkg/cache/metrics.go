package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_cache_lookups_total",
			Help: "Upstream response cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "expired"
	)

	cacheBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_cache_written_bytes_total",
			Help: "Bytes written to the upstream response cache",
		},
	)

	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_cache_errors_total",
			Help: "Cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "purge"
	)
)
