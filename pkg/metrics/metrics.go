// Package metrics provides Prometheus instrumentation for tap-purecloud.
//
// # Basic Usage
//
//	// Count emitted records
//	metrics.RecordsEmitted.WithLabelValues("users").Add(float64(len(batch)))
//
//	// Time a page fetch
//	timer := metrics.NewTimer("users")
//	page, err := fetch(ctx)
//	metrics.FetchLatency.WithLabelValues("users").Observe(timer.Stop().Seconds())
//
// Metrics are registered with the default registry on import and exposed by
// Serve when the CLI is started with --metrics-addr.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Page fetch status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusEmpty   = "empty"
)

var (
	// PagesFetched counts page fetches per stream.
	// Labels: stream, status (success/empty/failure)
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_purecloud_pages_fetched_total",
			Help: "Total number of pages fetched",
		},
		[]string{"stream", "status"},
	)

	// FetchLatency tracks page fetch latency in seconds, retries included.
	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tap_purecloud_fetch_latency_seconds",
			Help:    "Page fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 150},
		},
		[]string{"stream"},
	)

	// FetchRetries counts rate-limit retries.
	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_purecloud_fetch_retries_total",
			Help: "Total number of rate-limited fetches that were retried",
		},
		[]string{"stream"},
	)

	// RecordsEmitted counts records written to the sink.
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_purecloud_records_emitted_total",
			Help: "Total number of records emitted",
		},
		[]string{"stream"},
	)

	// RecordsDropped counts entities whose transform failed.
	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_purecloud_records_dropped_total",
			Help: "Total number of entities dropped by a failed transform",
		},
		[]string{"stream"},
	)

	// HTTPRequests counts API requests by method and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_purecloud_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "code"},
	)

	// StreamDuration tracks how long each stream sync takes.
	StreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tap_purecloud_stream_duration_seconds",
			Help:    "Stream sync duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"stream", "status"},
	)

	// NotificationWaits tracks time from trigger to notification.
	NotificationWaits = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tap_purecloud_notification_wait_seconds",
			Help:    "Time spent waiting for a notification after triggering a query",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"topic", "status"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the label the timer was created with.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
