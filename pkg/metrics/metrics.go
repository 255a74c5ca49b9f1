// payment-requests/pkg/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// "service" label lets one query compare the HTTP and gRPC adapters
	PaymentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "requests_total",
			Help:      "Total inbound calls per service",
		},
		[]string{"service", "status", "method"},
	)

	PaymentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payment",
			Name:      "request_duration_seconds",
			Help:      "Inbound call duration per service",
			// dense sub-second buckets
			Buckets: []float64{
				0.005, 0.01, 0.02, 0.03, 0.05, 0.08, 0.12,
				0.2, 0.3, 0.5, 0.8, 1.2, 2, 3, 5,
			},
		},
		[]string{"service", "status"},
	)

	PaymentAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Subsystem: "attempts",
			Name:      "total",
			Help:      "Payment attempts by outcome",
		},
		[]string{"outcome"},
	)

	PaymentRequestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "payment",
			Subsystem: "requests",
			Name:      "created_total",
			Help:      "Payment requests created",
		},
	)

	PaymentRequestsExpired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Subsystem: "requests",
			Name:      "expired_total",
			Help:      "Payment requests moved to expired",
		},
		[]string{"source"},
	)

	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Subsystem: "events",
			Name:      "consumed_total",
			Help:      "Payment request events read by the worker",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		PaymentRequestsTotal,
		PaymentRequestDuration,
		PaymentAttemptsTotal,
		PaymentRequestsCreated,
		PaymentRequestsExpired,
		EventsConsumed,
	)
}

// Helpers called from adapters and the service
func IncRequest(service, status, method string) {
	PaymentRequestsTotal.WithLabelValues(service, status, method).Inc()
}

func ObserveDuration(service, status string, seconds float64) {
	PaymentRequestDuration.WithLabelValues(service, status).Observe(seconds)
}

func IncAttempt(outcome string) {
	PaymentAttemptsTotal.WithLabelValues(outcome).Inc()
}

func IncCreated() {
	PaymentRequestsCreated.Inc()
}

func AddExpired(source string, n int64) {
	if n <= 0 {
		return
	}
	PaymentRequestsExpired.WithLabelValues(source).Add(float64(n))
}

func IncConsumed(eventType string) {
	EventsConsumed.WithLabelValues(eventType).Inc()
}

// StatusLabel folds an HTTP-ish status code into SUCCESS/FAILED.
func StatusLabel(code int) string {
	if code >= 200 && code < 400 {
		return "SUCCESS"
	}
	return "FAILED"
}
