package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushrelay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pushrelay_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushrelay_dispatch_total",
			Help: "Number of processed notification-created events by outcome",
		},
		[]string{"outcome"},
	)

	PushSendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pushrelay_push_send_duration_seconds",
			Help:    "Duration of push transport send calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// StatusWriteFailures counts records whose terminal status could not be
	// written back after a delivery attempt.
	StatusWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pushrelay_status_write_failures_total",
			Help: "Number of failed terminal status write-backs",
		},
	)

	SweptRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pushrelay_swept_records_total",
			Help: "Number of notification records deleted by the retention sweeper",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		HTTPRequests,
		RequestDuration,
		DispatchTotal,
		PushSendDuration,
		StatusWriteFailures,
		SweptRecords,
	)
}
