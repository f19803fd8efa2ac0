package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_requests_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	// Rate limiting metrics
	rateLimitDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_dropped_total",
			Help: "Total number of requests dropped due to rate limiting",
		},
		[]string{"category"}, // login, upload or general
	)

	// Auth metrics
	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"}, // success or failure
	)

	// Attendance metrics
	attendanceEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_events_total",
			Help: "Total number of attendance check events",
		},
		[]string{"type", "outcome"}, // check_in/check_out, success/failure
	)
)

// Init registers the collectors
func Init() error {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		rateLimitDroppedTotal,
		loginAttemptsTotal,
		attendanceEventsTotal,
	)
	return nil
}

// HTTPMetricsMiddleware records request count and latency per route
func HTTPMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		labels := []string{c.Method(), c.Route().Path, strconv.Itoa(status)}
		httpRequestsTotal.WithLabelValues(labels...).Inc()
		httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

		return err
	}
}

// PrometheusHandler exposes the scrape endpoint
func PrometheusHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// RateLimitDropped counts a rejected request for the given category
func RateLimitDropped(category string) {
	rateLimitDroppedTotal.WithLabelValues(category).Inc()
}

// LoginAttempt counts a login attempt by outcome
func LoginAttempt(success bool) {
	if success {
		loginAttemptsTotal.WithLabelValues("success").Inc()
	} else {
		loginAttemptsTotal.WithLabelValues("failure").Inc()
	}
}

// AttendanceEvent counts a check-in/check-out by outcome
func AttendanceEvent(eventType string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	attendanceEventsTotal.WithLabelValues(eventType, outcome).Inc()
}
