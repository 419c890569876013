package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamLatency records upstream API latency by endpoint.
	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ziogram_admin_upstream_latency_seconds",
		Help:    "Latency of upstream API calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// UpstreamFailures counts upstream calls that failed, by endpoint and kind (unavailable, rejected).
	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ziogram_admin_upstream_failures_total",
		Help: "Total number of failed upstream API calls",
	}, []string{"endpoint", "kind"})

	// ModerationActions counts moderation actions by action and outcome status.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ziogram_admin_moderation_actions_total",
		Help: "Total number of moderation actions by outcome",
	}, []string{"action", "status"})

	// LikeOutcomes counts optimistic like mutations by final state.
	LikeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ziogram_admin_like_outcomes_total",
		Help: "Total number of like toggles by final state",
	}, []string{"state"})

	// StaleResponsesDropped counts list responses discarded because a newer one was applied.
	StaleResponsesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ziogram_admin_stale_responses_dropped_total",
		Help: "Total number of out-of-order list responses discarded",
	}, []string{"list"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ziogram_admin_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ziogram_admin_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RateLimited counts requests rejected by the limiter, by bucket.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ziogram_admin_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	}, []string{"bucket"})

	// ActiveWebSockets is the gauge of connected live-stream clients.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ziogram_admin_websocket_connections",
		Help: "Number of connected moderation stream clients",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackUpstream returns a function that records upstream latency when called.
func TrackUpstream(endpoint string) func() {
	start := time.Now()
	return func() {
		UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
