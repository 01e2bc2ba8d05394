// Package metrics exposes Prometheus counters for the booking flow.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "booking_flow"

var (
	once sync.Once

	couponValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_validations_total",
			Help:      "Coupon validations by outcome.",
		},
		[]string{"outcome"},
	)

	bookingSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submissions_total",
			Help:      "Booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	staleDiscards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_discarded_total",
			Help:      "Remote results dropped because the flow moved on while they were in flight.",
		},
		[]string{"kind"},
	)

	backendRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of calls to the booking backend.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	activeFlows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_flows",
			Help:      "Booking flows currently held in memory.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(couponValidations, bookingSubmissions, staleDiscards, backendRequests, activeFlows)
	})
}

func IncCouponValidation(outcome string) {
	couponValidations.WithLabelValues(outcome).Inc()
}

func IncBookingSubmission(outcome string) {
	bookingSubmissions.WithLabelValues(outcome).Inc()
}

func IncStaleDiscard(kind string) {
	staleDiscards.WithLabelValues(kind).Inc()
}

func ObserveBackendRequest(endpoint, status string, seconds float64) {
	backendRequests.WithLabelValues(endpoint, status).Observe(seconds)
}

func SetActiveFlows(n int) {
	activeFlows.Set(float64(n))
}
