// Package metrics provides the Prometheus registry and scrape handler for the
// cadastre client. All metrics are defined in their respective packages
// (client, pagination, ratelimit, cache, project) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the cadastre client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer exposes the metrics registered in Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler serving all registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Page Request Metrics (pkg/client):
//   - cadastre_page_requests_total{result} (Counter): Page requests by result (ok, not_found, api_error, transport_error)
//   - cadastre_page_request_duration_seconds (Histogram): Page request duration
//   - cadastre_errors_total{class} (Counter): Errors by class (api, transport)
//
// Region Metrics (pkg/pagination):
//   - cadastre_region_outcomes_total{status} (Counter): Region collections by status (collected, empty, failed)
//   - cadastre_region_pages_total{result} (Counter): Pages processed by the collector by result
//   - cadastre_region_features (Histogram): Features per collected region
//   - cadastre_region_duration_seconds (Histogram): Region collection duration
//   - cadastre_region_retries_total (Counter): Whole-region retry attempts
//   - cadastre_region_retry_backoff_seconds (Histogram): Backoff before a region retry
//   - cadastre_region_retry_exhausted_total (Counter): Regions failing after all attempts
//
// Pacing Metrics (pkg/ratelimit):
//   - cadastre_page_delays_total (Counter): Inter-page delays applied
//   - cadastre_ratelimit_wait_seconds (Histogram): Time spent waiting for the request budget
//
// Cache Metrics (pkg/cache):
//   - cadastre_cache_lookups_total{layer, result} (Counter): Reads by data layer and result (hit, miss, expired, corrupt)
//   - cadastre_cache_stored_regions_total{layer} (Counter): Regions written by data layer
//   - cadastre_cache_entry_bytes (Histogram): Encoded size of cached regions
//   - cadastre_cache_errors_total{operation} (Counter): Cache operation errors
//
// Project Metrics (pkg/project):
//   - cadastre_project_store_operations_total{store, operation, result} (Counter): Save/load operations
//   - cadastre_project_state_bytes{store} (Gauge): Encoded size of the last saved project
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(cadastre_cache_lookups_total{result="hit"}[5m])) /
//   sum(rate(cadastre_cache_lookups_total[5m]))
//
//   # Region Failure Rate
//   rate(cadastre_region_outcomes_total{status="failed"}[5m])
//
//   # API Rejections
//   rate(cadastre_errors_total{class="api"}[5m])
//
//   # P95 Page Latency
//   histogram_quantile(0.95, rate(cadastre_page_request_duration_seconds_bucket[5m]))
