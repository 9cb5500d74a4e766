package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FeedRequests counts outbound feed API requests
	FeedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvewatch",
			Name:      "feed_requests_total",
			Help:      "Total number of requests issued against the vulnerability feed",
		},
		[]string{"kind"},
	)

	// FeedFailures counts failed feed API requests
	FeedFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvewatch",
			Name:      "feed_failures_total",
			Help:      "Total number of failed feed requests",
		},
		[]string{"kind", "reason"},
	)

	// RecordsIngested counts new vulnerability records persisted
	RecordsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cvewatch",
			Name:      "records_ingested_total",
			Help:      "Total number of new vulnerability records persisted",
		},
	)

	// RecordsSkipped counts records skipped during ingestion
	RecordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvewatch",
			Name:      "records_skipped_total",
			Help:      "Total number of feed records skipped during ingestion",
		},
		[]string{"reason"},
	)

	// NotificationsDispatched counts alert notifications written
	NotificationsDispatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cvewatch",
			Name:      "notifications_dispatched_total",
			Help:      "Total number of alert notifications written",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(FeedRequests)
		prometheus.DefaultRegisterer.Register(FeedFailures)
		prometheus.DefaultRegisterer.Register(RecordsIngested)
		prometheus.DefaultRegisterer.Register(RecordsSkipped)
		prometheus.DefaultRegisterer.Register(NotificationsDispatched)
	})
}
