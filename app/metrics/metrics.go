package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the wizard funnel counters.
type Metrics struct {
	registry *prometheus.Registry

	SessionsOpened  prometheus.Counter
	StepCompletions *prometheus.CounterVec
	PlanAssignments *prometheus.CounterVec
	PaymentFailures *prometheus.CounterVec
	RecoveryResets  prometheus.Counter
	SessionsClosed  prometheus.Counter
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_sessions_opened_total",
			Help: "Total number of wizard sessions opened or resumed",
		}),
		StepCompletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_step_completions_total",
				Help: "Total number of completed wizard steps",
			},
			[]string{"step"},
		),
		PlanAssignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_plan_assignments_total",
				Help: "Total number of plan assignment attempts by outcome",
			},
			[]string{"outcome"},
		),
		PaymentFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_payment_failures_total",
				Help: "Total number of payment failures by code",
			},
			[]string{"code"},
		),
		RecoveryResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_recovery_resets_total",
			Help: "Total number of sessions reset because progress recovery failed",
		}),
		SessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_sessions_closed_total",
			Help: "Total number of sessions finished from the success step",
		}),
	}

	registry.MustRegister(
		m.SessionsOpened,
		m.StepCompletions,
		m.PlanAssignments,
		m.PaymentFailures,
		m.RecoveryResets,
		m.SessionsClosed,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
