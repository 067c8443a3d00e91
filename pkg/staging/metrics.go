package staging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var stagedRecords = promauto.NewCounter(prometheus.CounterOpts{
	Name: "crawler_staged_records_total",
	Help: "Total number of records appended to staging files",
})
