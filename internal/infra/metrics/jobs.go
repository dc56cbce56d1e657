package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		jobsEnqueuedTotal,
		jobsProcessedTotal,
		jobDurationSeconds,
		jobsInFlight,
		jobsRecoveredTotal,
	)
}

var (
	jobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarize_jobs_enqueued_total",
			Help: "Jobs accepted for asynchronous processing, by queue backend.",
		},
		[]string{"backend"},
	)

	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarize_jobs_processed_total",
			Help: "Total number of jobs processed, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	jobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarize_job_duration_seconds",
			Help:    "Time from claim to ack.",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	jobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "summarize_jobs_in_flight",
			Help: "Jobs currently held by a worker.",
		},
	)

	jobsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "summarize_jobs_recovered_total",
			Help: "Claimed-but-unacked jobs moved back to pending.",
		},
	)
)

func IncJobEnqueued(backend string) {
	jobsEnqueuedTotal.WithLabelValues(norm(backend)).Inc()
}

// ObserveJob records a finished job.
func ObserveJob(status string, elapsed time.Duration) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
	jobDurationSeconds.WithLabelValues(norm(status)).Observe(elapsed.Seconds())
}

func JobStarted()  { jobsInFlight.Inc() }
func JobFinished() { jobsInFlight.Dec() }

func AddRecovered(n int) {
	jobsRecoveredTotal.Add(float64(n))
}
