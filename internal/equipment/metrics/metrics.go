package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the equipment lifecycle engine.
type Metrics struct {
	TransitionsTotal  *prometheus.CounterVec
	FailuresTotal     *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with all equipment metrics registered on
// the default registry.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "turfops_equipment_transitions_total",
			Help: "Successful lifecycle transitions by verb",
		}, []string{"verb"}),
		FailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "turfops_equipment_failures_total",
			Help: "Rejected lifecycle operations by verb and reason",
		}, []string{"verb", "reason"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "turfops_equipment_operation_duration_seconds",
			Help:    "Duration of lifecycle operations including the transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncrementTransition records one successful lifecycle transition.
func (m *Metrics) IncrementTransition(verb string) {
	m.TransitionsTotal.WithLabelValues(verb).Inc()
}

// IncrementFailure records a rejected operation. The reason is the stable
// machine token carried by the domain error, or empty for infra failures.
func (m *Metrics) IncrementFailure(verb, reason string) {
	if reason == "" {
		reason = "internal"
	}
	m.FailuresTotal.WithLabelValues(verb, reason).Inc()
}

// ObserveOperation records the duration of one lifecycle operation. Call
// with time.Now() captured at the start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
