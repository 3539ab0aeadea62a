package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit recording.
type Metrics struct {
	Recorded            *prometheus.CounterVec
	Invalid             prometheus.Counter
	PersistFailures     prometheus.Counter
	SinkFailures        prometheus.Counter
	BufferDropped       prometheus.Counter
	CircuitDropped      prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

// NewMetrics registers the audit metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_audit_recorded_total",
			Help: "Audit entries persisted, by category",
		}, []string{"category"}),
		Invalid: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_audit_invalid_total",
			Help: "Audit entries dropped because they failed validation",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_audit_persist_failures_total",
			Help: "Audit entries that the store failed to persist",
		}),
		SinkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_audit_sink_failures_total",
			Help: "Audit entries that could not be handed to a stream sink",
		}),
		BufferDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_audit_buffer_dropped_total",
			Help: "Audit entries dropped because the async buffer was full",
		}),
		CircuitDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_audit_circuit_breaker_dropped_total",
			Help: "Audit entries dropped while the store circuit was open",
		}),
		CircuitBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "trustline_audit_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

func (m *Metrics) incRecorded(category string) {
	if m != nil {
		m.Recorded.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) incInvalid() {
	if m != nil {
		m.Invalid.Inc()
	}
}

func (m *Metrics) incPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) incSinkFailures() {
	if m != nil {
		m.SinkFailures.Inc()
	}
}

func (m *Metrics) incBufferDropped() {
	if m != nil {
		m.BufferDropped.Inc()
	}
}

func (m *Metrics) incCircuitDropped() {
	if m != nil {
		m.CircuitDropped.Inc()
	}
}

func (m *Metrics) setCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
		return
	}
	m.CircuitBreakerState.Set(0)
}
