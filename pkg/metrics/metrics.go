// Package metrics provides the Prometheus registry shared by the pagination packages.
// All metrics are defined in their respective packages (fetch, cache, pagination)
// to maintain modularity and avoid circular dependencies.
//
// This package provides the catalogue of available metrics, an HTTP handler
// and a snapshot helper for command line reporting.
package metrics

import (
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Prefix is shared by every pagination metric.
const Prefix = "pagination_"

// Registry is the default Prometheus registry used by the pagination packages.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Sample is one metric family summed over its label sets.
type Sample struct {
	Name  string
	Value float64
}

// Snapshot returns the pagination metric families, each summed over all
// label combinations, sorted by name. Histograms report their sample count.
func Snapshot() ([]Sample, error) {
	families, err := Gatherer.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), Prefix) {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += value(mf.GetType(), m)
		}
		out = append(out, Sample{Name: mf.GetName(), Value: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func value(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}

// Metrics Documentation
//
// Fetch Metrics (pkg/fetch):
//   - pagination_fetch_requests_total{transport, status} (Counter): Page requests by transport (standard, jsonp, cache) and outcome
//   - pagination_fetch_duration_seconds{transport} (Histogram): Page request duration by transport
//   - pagination_fetch_errors_total{tag} (Counter): Failed page requests by tag (fetchError, jsonpTimeout, jsonpError)
//   - pagination_jsonp_pending (Gauge): Registered JSONP callbacks awaiting a response
//
// Cache Metrics (pkg/cache):
//   - pagination_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - pagination_cache_misses_total (Counter): Cache misses
//   - pagination_cache_errors_total{operation} (Counter): Cache operation errors
//
// Instance Metrics (pkg/pagination):
//   - pagination_page_transitions_total{mode} (Counter): Applied page transitions by mode (sync, remote)
//   - pagination_go_rejected_total{reason} (Counter): Rejected page requests (destroyed, disabled, out_of_range, before_send)
//   - pagination_stale_responses_total (Counter): Remote responses discarded because a newer request superseded them
//   - pagination_active_instances (Gauge): Live pagination instances
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(pagination_cache_hits_total[5m])) /
//   (sum(rate(pagination_cache_hits_total[5m])) + sum(rate(pagination_cache_misses_total[5m])))
//
//   # JSONP Timeout Rate
//   rate(pagination_fetch_errors_total{tag="jsonpTimeout"}[5m])
//
//   # P95 Page Request Latency
//   histogram_quantile(0.95, rate(pagination_fetch_duration_seconds_bucket[5m]))
//
//   # Superseded Requests
//   rate(pagination_stale_responses_total[5m])
