package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	bookingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_events_total",
			Help:      "Booking lifecycle events by type.",
		},
		[]string{"event"},
	)

	commentsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_added_total",
			Help:      "Comments accepted.",
		},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests refused by a rate limiter.",
		},
		[]string{"scope"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, grpcRequests, bookingEvents, commentsAdded, rateLimited)
	})
}

func ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

func IncBookingEvent(event string) {
	bookingEvents.WithLabelValues(event).Inc()
}

func IncComment() {
	commentsAdded.Inc()
}

// IncRateLimited counts a refusal; scope is "api_key" or "user".
func IncRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}
