package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatherings/internal/domain"
)

// Metrics holds the workflow counters exported on /metrics.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Compensations *prometheus.CounterVec
	Operations    *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatherings_invite_transitions_total",
				Help: "Invite state transitions attempted, by transition and outcome",
			},
			[]string{"transition", "outcome"}, // outcome: success, an error code, or error
		),
		Compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatherings_invite_compensations_total",
				Help: "Invite transitions rolled back after a partial write",
			},
			[]string{"transition"},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatherings_operations_total",
				Help: "Gathering mutations attempted, by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
	reg.MustRegister(m.Transitions, m.Compensations, m.Operations)
	return m
}

func (m *Metrics) ObserveTransition(transition string, err error) {
	m.Transitions.WithLabelValues(transition, outcome(err)).Inc()
}

func (m *Metrics) ObserveCompensation(transition string) {
	m.Compensations.WithLabelValues(transition).Inc()
}

func (m *Metrics) ObserveOperation(operation string, err error) {
	m.Operations.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if derr, ok := domain.AsError(err); ok {
		return string(derr.Code)
	}
	return "error"
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
