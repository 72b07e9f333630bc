/*
Package metrics exposes Prometheus counters, gauges, and histograms for the
scheduler and job subsystems: how many jobs have been scheduled and
finished (by result state), how long each solver invocation took, and how
many solution uploads succeeded or were rejected.

# Usage

	timer := metrics.NewTimer()
	// ... run a job ...
	timer.ObserveDuration(metrics.JobDuration)
	metrics.JobsFinished.WithLabelValues(result.String()).Inc()

stride does not start an HTTP listener itself; an embedding caller that
wants to scrape these metrics can mount metrics.Handler() on its own mux.

# See Also

  - pkg/scheduler - the cycle these metrics are recorded from
  - pkg/job - per-instance result classification feeding JobsFinished
*/
package metrics
