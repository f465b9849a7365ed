// Package metrics exposes Prometheus instruments for the client's outbound
// requests and session lifecycle. All observation methods are nil-safe so
// callers can run without metrics wired.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the errand-mate client.
type Metrics struct {
	// Gateway request metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	// Session lifecycle metrics
	AuthChecks           *prometheus.CounterVec
	SessionTransitions   *prometheus.CounterVec
	OptimisticRecoveries prometheus.Counter
}

// New creates a Metrics instance with all instruments registered on registry.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errandmate_gateway_requests_total",
				Help: "Total number of backend requests",
			},
			[]string{"endpoint", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "errandmate_gateway_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		RequestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errandmate_gateway_request_errors_total",
				Help: "Total number of normalized request failures",
			},
			[]string{"endpoint", "error_code"},
		),
		AuthChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errandmate_auth_checks_total",
				Help: "Total number of session probes",
			},
			[]string{"result"},
		),
		SessionTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errandmate_session_transitions_total",
				Help: "Total number of session store transitions",
			},
			[]string{"transition"},
		),
		OptimisticRecoveries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "errandmate_optimistic_recoveries_total",
				Help: "Failed optimistic updates recovered by a full re-fetch",
			},
		),
	}
}

// ObserveRequest records one completed backend request.
func (m *Metrics) ObserveRequest(endpoint, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, method, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveRequestError records one normalized request failure.
func (m *Metrics) ObserveRequestError(endpoint, errorCode string) {
	if m == nil {
		return
	}
	m.RequestErrors.WithLabelValues(endpoint, errorCode).Inc()
}

// ObserveAuthCheck records the result of a session probe.
func (m *Metrics) ObserveAuthCheck(result string) {
	if m == nil {
		return
	}
	m.AuthChecks.WithLabelValues(result).Inc()
}

// ObserveTransition records a session store transition by name.
func (m *Metrics) ObserveTransition(name string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(name).Inc()
}

// ObserveOptimisticRecovery records a re-fetch triggered by a failed
// optimistic update.
func (m *Metrics) ObserveOptimisticRecovery() {
	if m == nil {
		return
	}
	m.OptimisticRecoveries.Inc()
}
