// Package metrics exposes the crawler's Prometheus metrics.
// All metrics are defined in their respective packages (client, cache,
// staging, directory) and registered via promauto on the default registry.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Gatherer collects the metrics served on /metrics. promauto registers every
// crawler metric on the default registry, which is also its gatherer.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Handler serves Gatherer in the Prometheus text format.
func Handler() http.Handler {
	return HandlerFor(Gatherer)
}

// HandlerFor serves g in the Prometheus text format.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Server serves /metrics for the lifetime of a crawl run.
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   zerolog.Logger
}

// Listen binds addr and starts serving in the background.
func Listen(addr string, logger zerolog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	s := &Server{
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: ln,
		logger:   logger,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Metrics Documentation
//
// Upstream Metrics (pkg/client):
//   - crawler_upstream_requests_total{kind, status} (Counter): Requests by kind and HTTP status
//   - crawler_upstream_request_duration_seconds{kind} (Histogram): Request duration
//   - crawler_upstream_errors_total{class} (Counter): Errors by class (client, server, network)
//   - crawler_upstream_retries_total{error_class} (Counter): Retry attempts
//   - crawler_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff durations
//   - crawler_upstream_retry_exhausted_total{error_class} (Counter): Exhausted retries
//
// Cache Metrics (pkg/cache):
//   - crawler_cache_lookups_total{result} (Counter): hit, miss, expired
//   - crawler_cache_written_bytes_total (Counter): Bytes written
//   - crawler_cache_errors_total{operation} (Counter)
//
// Staging Metrics (pkg/staging):
//   - crawler_staged_records_total (Counter)
//
// Crawl Metrics (pkg/directory):
//   - crawler_items_total{resource, outcome} (Counter): success, not_found, dropped
//   - crawler_batch_duration_seconds{resource} (Histogram)
//   - crawler_batches_total{resource, result} (Counter): ok, failed
//
// Example Prometheus Queries:
//
//   # Dropped detail rate
//   rate(crawler_items_total{resource="school_detail",outcome="dropped"}[5m])
//
//   # P95 batch latency
//   histogram_quantile(0.95, rate(crawler_batch_duration_seconds_bucket[5m]))
