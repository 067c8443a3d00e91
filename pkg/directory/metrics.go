package directory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for crawl progress.
var (
	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_items_total",
		Help: "Crawled identifiers by resource and outcome",
	}, []string{"resource", "outcome"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crawler_batch_duration_seconds",
		Help:    "Wall time of one batch including staging",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"resource"})

	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_batches_total",
		Help: "Batches by resource and result",
	}, []string{"resource", "result"})
)
