// Package metrics exposes Prometheus collectors for the HTTP surface and the
// reminder scheduler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	remindersTotal             *prometheus.CounterVec
	adviceRotationsTotal       prometheus.Counter
	rateLimitedTotal           prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "route"},
		)

		remindersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supplications_reminders_total",
				Help: "Reminder notifications handed to the publisher, labeled by kind and status.",
			},
			[]string{"kind", "status"},
		)

		adviceRotationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "supplications_advice_rotations_total",
				Help: "Number of times the displayed advice changed.",
			},
		)

		rateLimitedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests refused with 429 by the per-client rate limiter.",
			},
		)
	})
}

// Handler returns an http.Handler exposing the default registry merged with
// any extra gatherers.
func Handler(extra ...prometheus.Gatherer) http.Handler {
	if len(extra) == 0 {
		return promhttp.Handler()
	}
	gatherers := append(prometheus.Gatherers{prometheus.DefaultGatherer}, extra...)
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveReminder counts a reminder publish attempt.
func ObserveReminder(kind, status string) {
	if remindersTotal == nil {
		return
	}
	remindersTotal.WithLabelValues(kind, status).Inc()
}

// ObserveAdviceRotation counts one advice rotation.
func ObserveAdviceRotation() {
	if adviceRotationsTotal == nil {
		return
	}
	adviceRotationsTotal.Inc()
}

// ObserveRateLimited counts one request refused by the rate limiter.
func ObserveRateLimited() {
	if rateLimitedTotal == nil {
		return
	}
	rateLimitedTotal.Inc()
}
