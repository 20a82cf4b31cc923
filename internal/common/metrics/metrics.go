// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	CatalogFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Duration of catalog document downloads",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"file", "status"},
	)

	RulesMatched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rules_matched",
			Help:    "Number of rules selected per generation",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	RulesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rules_skipped_total",
			Help: "Rules dropped while decoding rules.json",
		},
		[]string{"reason"},
	)

	ScriptsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scripts_generated_total",
			Help: "Generation outcomes: scripts, default, empty, superseded, failed",
		},
		[]string{"outcome"},
	)
)

// Job observes one handled job.
func Job(taskType string, seconds float64, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(seconds)
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
