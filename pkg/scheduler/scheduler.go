package scheduler

import (
	"context"
	"time"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/cuemby/stride/pkg/job"
	"github.com/cuemby/stride/pkg/log"
	"github.com/cuemby/stride/pkg/metrics"
	"github.com/cuemby/stride/pkg/progress"
	"github.com/cuemby/stride/pkg/summarylog"
	"github.com/rs/zerolog"
)

const (
	shortWait   = 10 * time.Millisecond
	defaultWait = 100 * time.Millisecond
)

// Scheduler drains an instance queue under a bounded-parallelism limit,
// spawning one Job per instance and reporting outcomes as they complete.
type Scheduler struct {
	deps       job.Deps
	parallel   int
	aggregator *progress.Aggregator
	broker     *progress.Broker
	summary    *summarylog.Logger
	logger     zerolog.Logger
}

// New creates a Scheduler bound to deps and a parallelism limit. summary
// may be nil if no CSV summary should be written.
func New(deps job.Deps, parallel int, summary *summarylog.Logger, broker *progress.Broker) *Scheduler {
	if parallel < 1 {
		parallel = 1
	}
	return &Scheduler{
		deps:     deps,
		parallel: parallel,
		summary:  summary,
		broker:   broker,
		logger:   log.WithComponent("scheduler"),
	}
}

type inflight struct {
	iid  ids.IID
	j    *job.Job
	done chan jobResult
}

type jobResult struct {
	outcome job.Outcome
	success bool
	err     error
}

// Run drains queue to completion, returning failed=true if any job's
// outcome counts as a failure under the exit-code policy.
func (s *Scheduler) Run(ctx context.Context, queue []ids.IID) (failed bool, err error) {
	s.aggregator = progress.NewAggregator(len(queue))
	var running []*inflight
	pending := append([]ids.IID(nil), queue...)

	for len(pending) > 0 || len(running) > 0 {
		cycleStart := time.Now()

		for len(running) < s.parallel && len(pending) > 0 {
			iid := pending[0]
			pending = pending[1:]
			running = append(running, s.spawn(ctx, iid))
		}

		running, failed = s.reapFinished(running, failed)

		metrics.SchedulingCycleDuration.Observe(time.Since(cycleStart).Seconds())
		metrics.JobsRunning.Set(float64(len(running)))

		if len(running) < s.parallel {
			time.Sleep(shortWait)
		} else {
			time.Sleep(defaultWait)
		}
	}
	return failed, nil
}

func (s *Scheduler) spawn(ctx context.Context, iid ids.IID) *inflight {
	j := job.New(s.deps, iid)
	done := make(chan jobResult, 1)
	metrics.JobsScheduled.Inc()
	s.aggregator.JobStarted()
	if s.broker != nil {
		s.broker.Publish(progress.Event{Type: progress.EventJobStarted, IID: iid, State: j.State()})
	}

	go func() {
		timer := metrics.NewTimer()
		outcome, success, err := j.Run(ctx)
		timer.ObserveDuration(metrics.JobDuration)
		done <- jobResult{outcome: outcome, success: success, err: err}
	}()

	return &inflight{iid: iid, j: j, done: done}
}

func (s *Scheduler) reapFinished(running []*inflight, failed bool) ([]*inflight, bool) {
	var stillRunning []*inflight
	for _, in := range running {
		select {
		case res := <-in.done:
			s.handleFinished(in.iid, res)
			if !res.success {
				failed = true
			}
		default:
			stillRunning = append(stillRunning, in)
		}
	}
	return stillRunning, failed
}

func (s *Scheduler) handleFinished(iid ids.IID, res jobResult) {
	if res.err != nil {
		s.logger.Error().Err(res.err).Uint32("iid", uint32(iid)).Msg("job finished with an internal error")
	}

	s.aggregator.JobFinished(res.outcome.State)
	metrics.JobsFinished.WithLabelValues(res.outcome.State.String()).Inc()
	if s.broker != nil {
		s.broker.Publish(progress.Event{
			Type: progress.EventJobFinished, IID: iid,
			State: job.StateFinished, Result: res.outcome.State,
		})
	}

	if s.summary != nil {
		row := summarylog.Row{
			IID:            iid,
			TimeSeconds:    res.outcome.Elapsed.Seconds(),
			State:          res.outcome.State.String(),
			Score:          res.outcome.Score,
			BestScoreKnown: res.outcome.BestKnown,
		}
		if err := s.summary.LogJobResult(row); err != nil {
			s.logger.Warn().Err(err).Uint32("iid", uint32(iid)).Msg("failed to write summary row")
		}
	}
}

// Snapshot returns the current aggregate progress counts.
func (s *Scheduler) Snapshot() progress.Counts {
	if s.aggregator == nil {
		return progress.Counts{}
	}
	return s.aggregator.Snapshot()
}
