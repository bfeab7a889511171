package httpclient

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	downstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downstream_requests_total",
			Help: "Total number of outgoing requests to downstream services",
		},
		[]string{"service", "method", "status"},
	)

	downstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "downstream_request_duration_seconds",
			Help:    "Duration of outgoing requests to downstream services, retries included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_fallback_invoked_total",
			Help: "Calls answered by the fallback because the breaker was open",
		},
		[]string{"name"},
	)
)

// observeRequest records one logical downstream call. status is the final
// HTTP status, or 0 when the call failed before a response arrived.
func observeRequest(service, method string, status int, err error, start time.Time) {
	if service == "" {
		service = "unknown"
	}
	label := strconv.Itoa(status)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		label = "timeout"
	case errors.Is(err, context.Canceled):
		label = "canceled"
	default:
		label = "transport_error"
	}
	downstreamRequestsTotal.WithLabelValues(service, method, label).Inc()
	downstreamRequestDuration.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
}
