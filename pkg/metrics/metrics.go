// Package metrics documents the Prometheus metrics exposed by the Honeycomb
// client. All metrics are defined in their respective packages (client,
// query, aggregate, cache) to maintain modularity and avoid circular
// dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - honeycomb_requests_total{path, status} (Counter): Requests by path and HTTP status
//   - honeycomb_request_duration_seconds{path} (Histogram): Request duration by path
//   - honeycomb_decode_errors_total (Counter): Responses that failed JSON decoding
//
// Retry Metrics (pkg/client):
//   - honeycomb_retries_total{path} (Counter): Rate-limit retry attempts by path
//   - honeycomb_retry_exhausted_total{path} (Counter): Requests that exhausted the retry budget
//
// Poll Metrics (pkg/query):
//   - honeycomb_poll_iterations_total (Counter): Query-result poll iterations
//   - honeycomb_poll_timeouts_total (Counter): Poll loops that hit their budget
//
// Aggregation Metrics (pkg/aggregate):
//   - honeycomb_aggregate_fetches_total{mode} (Counter): Per-item fetches by mode (ordered, bounded)
//   - honeycomb_aggregate_fetch_failures_total{mode} (Counter): Per-item failures by mode
//   - honeycomb_aggregate_fetches_in_flight (Gauge): Fetches currently in flight
//
// Cache Metrics (pkg/cache):
//   - honeycomb_cache_hits_total (Counter): Metadata cache hits
//   - honeycomb_cache_misses_total (Counter): Metadata cache misses
//   - honeycomb_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Rate-limit pressure
//   rate(honeycomb_retries_total[5m])
//
//   # Poll timeout rate
//   rate(honeycomb_poll_timeouts_total[5m]) / rate(honeycomb_poll_iterations_total[5m])
//
//   # Per-item failure rate by aggregation mode
//   rate(honeycomb_aggregate_fetch_failures_total[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(honeycomb_request_duration_seconds_bucket[5m]))
