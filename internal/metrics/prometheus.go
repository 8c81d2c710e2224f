// Package metrics exposes the Prometheus collectors of the status pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequestsTotal counts backend calls by endpoint and outcome kind.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuspulse_backend_requests_total",
			Help: "Total number of monitoring backend requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// BackendRequestDuration tracks backend call latency.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statuspulse_backend_request_duration_seconds",
			Help:    "Monitoring backend request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// RefreshesTotal counts refresh cycles by result.
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuspulse_refreshes_total",
			Help: "Total number of refresh cycles by result",
		},
		[]string{"result"},
	)

	// RefreshDuration tracks the duration of a full LoadAll.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "statuspulse_refresh_duration_seconds",
			Help:    "Duration of a full refresh cycle in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
	)

	// SupersededRefreshesTotal counts refresh results discarded because a newer refresh was started.
	SupersededRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statuspulse_superseded_refreshes_total",
			Help: "Total number of refresh results discarded as stale",
		},
	)

	// LastRefreshTimestamp is the unix time of the last committed snapshot.
	LastRefreshTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuspulse_last_refresh_timestamp_seconds",
			Help: "Unix time of the last committed snapshot",
		},
	)

	// MetricsFallbacksTotal counts services that got the empty-metrics fallback.
	MetricsFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statuspulse_metrics_fallbacks_total",
			Help: "Total number of per-service metrics fetches replaced by the empty fallback",
		},
	)

	// BatchFallbacksTotal counts refreshes where the batched endpoint failed.
	BatchFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statuspulse_batch_fallbacks_total",
			Help: "Total number of refreshes that fell back from the batched endpoint to N+1 calls",
		},
	)

	// ServicesByState is the number of services per health state in the board snapshot.
	ServicesByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statuspulse_services",
			Help: "Number of services per health state in the current snapshot",
		},
		[]string{"state"},
	)

	// CacheHits counts snapshot cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statuspulse_cache_hits_total",
			Help: "Total number of snapshot cache hits",
		},
	)

	// CacheMisses counts snapshot cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statuspulse_cache_misses_total",
			Help: "Total number of snapshot cache misses",
		},
	)

	// NotificationsTotal counts status change notifications by result.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuspulse_notifications_total",
			Help: "Total number of status change notifications by result",
		},
		[]string{"channel", "result"},
	)
)

// ObserveBackend records one backend call.
func ObserveBackend(endpoint, outcome string, seconds float64) {
	BackendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	BackendRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// SetStateCounts replaces the per-state service gauge.
func SetStateCounts(counts map[string]int, states []string) {
	for _, s := range states {
		ServicesByState.WithLabelValues(s).Set(float64(counts[s]))
	}
}
