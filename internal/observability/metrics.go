// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialfeed_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// FollowEvents counts follow graph mutations by action (follow, unfollow).
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialfeed_follow_events_total",
		Help: "Total number of follow and unfollow operations",
	}, []string{"action"})

	// LikeToggles counts like toggles by target kind and resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialfeed_like_toggles_total",
		Help: "Total number of like toggles",
	}, []string{"target", "result"})

	// FeedQueryDuration records feed query latency by feed kind.
	FeedQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialfeed_feed_query_seconds",
		Help:    "Feed query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// EventPublishFailures counts domain events that could not be delivered.
	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialfeed_event_publish_failures_total",
		Help: "Total number of domain events that failed to publish",
	}, []string{"type"})

	// NotificationSockets tracks open notification websockets.
	NotificationSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialfeed_notification_sockets",
		Help: "Number of open notification websockets",
	})

	// NotificationDrops counts notifications dropped because a socket's buffer was full.
	NotificationDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialfeed_notification_drops_total",
		Help: "Total number of notifications dropped due to backpressure",
	})
)

// TrackFeedQuery returns a function that records feed latency when called (e.g. defer).
func TrackFeedQuery(kind string) func() {
	start := time.Now()
	return func() {
		FeedQueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}
