package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servicehub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path pattern and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "servicehub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	gatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servicehub",
			Name:      "gateway_calls_total",
			Help:      "Payment gateway calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servicehub",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions.",
		},
		[]string{"from", "to"},
	)

	paymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servicehub",
			Name:      "payment_transitions_total",
			Help:      "Payment status transitions.",
		},
		[]string{"from", "to"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, gatewayCalls, bookingTransitions, paymentTransitions)
	})
}

// IncGatewayCall increments the gateway call counter.
func IncGatewayCall(operation, outcome string) {
	gatewayCalls.WithLabelValues(operation, outcome).Inc()
}

// IncBookingTransition records a booking status change.
func IncBookingTransition(from, to string) {
	bookingTransitions.WithLabelValues(from, to).Inc()
}

// IncPaymentTransition records a payment status change.
func IncPaymentTransition(from, to string) {
	paymentTransitions.WithLabelValues(from, to).Inc()
}

// Middleware records request counts and latency per route pattern.
func Middleware(routePattern func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			path := routePattern(r)
			httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(ww.status)).Inc()
			httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
