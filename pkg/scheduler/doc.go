/*
Package scheduler drives a run's instance queue to completion under a
bounded-parallelism limit.

# Architecture

The scheduler is a single controlling goroutine, not a pool of workers
pulling from a shared queue. Each cycle it tops up the set of in-flight
jobs from the front of the remaining instance queue, polls every in-flight
job for completion, and sleeps before the next cycle:

	┌──────────────────────────────────────────────────────┐
	│                  Scheduler.Run cycle                  │
	└───────────────────┬────────────────────────────────────┘
	                    │
	                    ▼
	┌──────────────────────────────────────────────────────┐
	│ 1. While slots free and queue non-empty: spawn a job  │
	│ 2. Poll all in-flight jobs for completion             │
	│ 3. Log + count each newly finished job                 │
	│ 4. Sleep: 10ms if slots were free, else 100ms          │
	└───────────────────┬────────────────────────────────────┘
	                    │
	        loop until queue empty and no jobs in flight

# Core Components

Scheduler: owns the instance queue and the in-flight job set.

	sched := scheduler.New(deps, parallel, summary, broker)
	failed, err := sched.Run(ctx, instanceQueue)

Unlike a container-placement scheduler, there is no external state to
reconcile against: the queue and in-flight set live entirely in the
Scheduler's own memory, and a process crash loses no persisted state by
design (the next invocation starts fresh).

# Failure Classification

Per spec, not every non-"best" outcome counts as a failure for the final
exit code: BestKnown, Incomplete, and Timeout always count as a pass;
Suboptimal passes unless --suboptimal-is-error was set; Infeasible and
Error always count as a failure. Scheduler.Run aggregates this across all
jobs and returns failed=true if any job counted as a failure.
*/
package scheduler
