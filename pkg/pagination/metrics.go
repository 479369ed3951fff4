package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pagination instances.
var (
	pageTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagination_page_transitions_total",
		Help: "Total applied page transitions by mode",
	}, []string{"mode"})

	goRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagination_go_rejected_total",
		Help: "Total rejected page requests by reason",
	}, []string{"reason"})

	staleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagination_stale_responses_total",
		Help: "Remote responses discarded because a newer request superseded them",
	})

	activeInstances = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pagination_active_instances",
		Help: "Live (not destroyed) pagination instances",
	})
)

const (
	modeSync   = "sync"
	modeRemote = "remote"
)
