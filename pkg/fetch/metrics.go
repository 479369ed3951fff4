package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for remote page requests.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagination_fetch_requests_total",
		Help: "Total remote page requests by transport and status",
	}, []string{"transport", "status"})

	fetchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagination_fetch_duration_seconds",
		Help:    "Remote page request duration in seconds by transport",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
	}, []string{"transport"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagination_fetch_errors_total",
		Help: "Total failed remote page requests by tag",
	}, []string{"tag"})

	jsonpPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pagination_jsonp_pending",
		Help: "JSONP callbacks currently registered",
	})
)

const (
	transportStandard = "standard"
	transportJSONP    = "jsonp"
	transportCache    = "cache"
)
