package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		generationsSubmittedTotal,
		generationsFinishedTotal,
		reconcilerSweepsTotal,
	)
}

var (
	generationsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_submitted_total",
			Help: "Generation jobs accepted into the worker pool, labeled by kind.",
		},
		[]string{"kind"},
	)

	generationsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_finished_total",
			Help: "Generation jobs finished, labeled by kind and outcome.",
		},
		[]string{"kind", "status"},
	)

	reconcilerSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_sweeps_total",
			Help: "Reconciliation sweeps, labeled by worker and outcome.",
		},
		[]string{"worker", "outcome"},
	)
)

func IncGenerationSubmitted(kind string) {
	generationsSubmittedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncGenerationFinished(kind, status string) {
	generationsFinishedTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func IncReconcilerSweep(worker, outcome string) {
	reconcilerSweepsTotal.WithLabelValues(norm(worker), norm(outcome)).Inc()
}
