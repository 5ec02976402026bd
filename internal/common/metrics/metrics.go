// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoanSubmissions counts submit attempts by outcome ("success" or the
	// failure's error code).
	LoanSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_submissions_total",
			Help: "Total number of loan application submissions by outcome",
		},
		[]string{"outcome"},
	)

	// IntakeRejections counts files refused by the intake pipeline, by the
	// check that refused them.
	IntakeRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_intake_rejections_total",
			Help: "Total number of uploaded files rejected by intake checks",
		},
		[]string{"check"},
	)

	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_status_updates_total",
			Help: "Total number of application status updates by outcome",
		},
		[]string{"outcome"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "loan_operation_duration_seconds",
			Help: "Duration of loan application operations in seconds",
		},
		[]string{"operation"},
	)

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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
