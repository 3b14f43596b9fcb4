// Package observability holds the Prometheus collectors and OpenTelemetry
// tracing setup shared by the service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibez_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vibez_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikesToggled counts like toggles by target kind and resulting status.
	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibez_likes_toggled_total",
		Help: "Total number of like toggles by target and outcome",
	}, []string{"target", "status"})

	// LikeConflictsRecovered counts toggles where a concurrent like won the unique index.
	LikeConflictsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibez_like_conflicts_recovered_total",
		Help: "Like inserts that hit the uniqueness guard and were resolved as unlike",
	})

	// MediaUploads counts blob uploads by backend and result.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibez_media_uploads_total",
		Help: "Total number of media uploads by backend and result",
	}, []string{"backend", "result"})

	// HashtagsApplied counts hashtag associations written to posts.
	HashtagsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibez_hashtags_applied_total",
		Help: "Total number of post hashtag associations applied",
	})

	// CascadeDeletedRows counts rows removed by post and comment cascades.
	CascadeDeletedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibez_cascade_deleted_rows_total",
		Help: "Rows removed by cascading deletes by table",
	}, []string{"table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
