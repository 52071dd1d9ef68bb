package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
)

var (
	// Registry holds the engine's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flow_engine",
			Subsystem: "runs",
			Name:      "total",
			Help:      "Workflow passes by terminal status.",
		},
		[]string{"status"},
	)

	stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flow_engine",
			Subsystem: "steps",
			Name:      "total",
			Help:      "Dispatched steps by kind and outcome.",
		},
		[]string{"kind", "status"},
	)

	creditDenials = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "flow_engine",
			Subsystem: "credits",
			Name:      "denials_total",
			Help:      "Triggers rejected for lack of credits.",
		},
	)

	creditDeductions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "flow_engine",
			Subsystem: "credits",
			Name:      "deductions_total",
			Help:      "Credits consumed by workflow passes.",
		},
	)
)

func init() {
	Registry.MustRegister(runsTotal, stepsTotal, creditDenials, creditDeductions)
}

func ObserveRun(status domain.RunStatus) {
	runsTotal.WithLabelValues(string(status)).Inc()
}

func ObserveStep(kind domain.StepKind, status domain.OutcomeStatus) {
	stepsTotal.WithLabelValues(string(kind), string(status)).Inc()
}

func CreditDenied() {
	creditDenials.Inc()
}

func CreditDeducted() {
	creditDeductions.Inc()
}

// Handler serves the engine registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
