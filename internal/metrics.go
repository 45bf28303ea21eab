package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recon_builds_started_total",
		Help: "Builds started from the root, including restarts",
	})

	buildsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recon_builds_committed_total",
		Help: "Builds whose effects were committed",
	})

	buildsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recon_builds_discarded_total",
		Help: "In-progress builds thrown away for a more urgent update",
	})

	buildsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recon_builds_failed_total",
		Help: "Builds abandoned on an uncaught error",
	})

	yields = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recon_yields_total",
		Help: "Times a build handed control back to the scheduler",
	})

	unitsOfWork = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recon_units_of_work_total",
		Help: "Nodes processed by the work loop",
	})

	effectsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_effects_applied_total",
		Help: "Host mutations applied at commit, by effect",
	}, []string{"effect"})

	commitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recon_commit_duration_seconds",
		Help:    "Time spent applying one commit",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)
