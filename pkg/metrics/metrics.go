// Package metrics holds the feed service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

var (
	InteractionWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_interaction_writes_total",
			Help: "Remote writes issued by interaction handlers",
		},
		[]string{"op", "result"},
	)

	UnsyncedMarks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_unsynced_marks_total",
			Help: "Reels marked unsynced after a failed optimistic write",
		},
		[]string{"op"},
	)

	FeedLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelfeed_feed_loads_total",
			Help: "Feed loads by whether the order was restored or freshly shuffled",
		},
		[]string{"order"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelfeed_active_sessions",
			Help: "Viewing sessions currently held by the engine",
		},
	)

	ActiveCommentStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelfeed_active_comment_streams",
			Help: "Open comment subscriptions across all sessions",
		},
	)

	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelfeed_feed_load_duration_seconds",
			Help:    "Time to load a session's feed from the store",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// ObserveWrite records one remote write outcome.
func ObserveWrite(op string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	InteractionWrites.WithLabelValues(op, result).Inc()
}
