package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hotel_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	reservationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_reservation_outcomes_total",
		Help: "Reservation create, update and cancel attempts by result",
	}, []string{"operation", "result"})

	signIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_sign_ins_total",
		Help: "Sign-in attempts by result",
	}, []string{"result"})

	expiredSessionsPruned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_session_prune_runs_total",
		Help: "Background expired-session prune runs by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric. Route is the router
// pattern, not the raw path, so identifiers do not explode the label set.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveReservation counts a reservation operation with a result label such
// as "accepted", "conflict" or "invalid".
func ObserveReservation(operation, result string) {
	reservationOutcomes.WithLabelValues(operation, result).Inc()
}

// ObserveSignIn counts a sign-in attempt.
func ObserveSignIn(result string) {
	signIns.WithLabelValues(result).Inc()
}

// ObserveSessionPrune counts a background prune run.
func ObserveSessionPrune(result string) {
	expiredSessionsPruned.WithLabelValues(result).Inc()
}
