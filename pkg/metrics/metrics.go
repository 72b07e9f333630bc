package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsScheduled counts jobs handed to a solver invocation.
	JobsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stride_jobs_scheduled_total",
			Help: "Total number of jobs scheduled for execution",
		},
	)

	// JobsFinished counts completed jobs by their result state.
	JobsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_jobs_finished_total",
			Help: "Total number of finished jobs by result state",
		},
		[]string{"state"},
	)

	// JobsRunning tracks the current number of in-flight jobs.
	JobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stride_jobs_running",
			Help: "Current number of jobs being executed",
		},
	)

	// SchedulingCycleDuration measures one scheduler poll-and-fill cycle.
	SchedulingCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stride_scheduling_cycle_duration_seconds",
			Help:    "Time taken by one scheduler cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// JobDuration measures solver execution time per job.
	JobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stride_job_duration_seconds",
			Help:    "Time taken to execute a solver for one instance, in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// UploadsTotal counts solution uploads by outcome.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_uploads_total",
			Help: "Total number of solution upload attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(JobsScheduled)
	prometheus.MustRegister(JobsFinished)
	prometheus.MustRegister(JobsRunning)
	prometheus.MustRegister(SchedulingCycleDuration)
	prometheus.MustRegister(JobDuration)
	prometheus.MustRegister(UploadsTotal)
}

// Handler returns the Prometheus HTTP handler, exposed only if a caller
// wires it up to a listener; stride itself does not start an HTTP server.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
