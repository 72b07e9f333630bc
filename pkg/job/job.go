// Package job drives one instance through its full lifecycle: fetch
// metadata and body, run the solver, verify and classify the outcome,
// and decide whether to upload. The scheduler writes the summary row.
package job

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/cuemby/stride/pkg/instancestore"
	"github.com/cuemby/stride/pkg/metadatastore"
	"github.com/cuemby/stride/pkg/pace"
	"github.com/cuemby/stride/pkg/solver"
	"github.com/cuemby/stride/pkg/upload"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is one step of a job's lifecycle. It only ever advances forward.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateStarting
	StateRunning
	StatePostProcessing
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StatePostProcessing:
		return "post_processing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ResultState is the final classification of a finished job, whose String
// form is the literal token written into the CSV summary log.
type ResultState int

const (
	ResultBestKnown ResultState = iota
	ResultSuboptimal
	ResultInfeasible
	ResultIncomplete
	ResultError
	ResultTimeout
)

func (r ResultState) String() string {
	switch r {
	case ResultBestKnown:
		return "best"
	case ResultSuboptimal:
		return "suboptimal"
	case ResultInfeasible:
		return "infeasible"
	case ResultIncomplete:
		return "incomplete"
	case ResultError:
		return "error"
	case ResultTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is the full result of one job, ready for logging and upload.
type Outcome struct {
	IID       ids.IID
	State     ResultState
	Score     *uint32
	BestKnown *uint32
	Elapsed   time.Duration
}

// Deps bundles the collaborators a Job needs, shared across all jobs in a
// run.
type Deps struct {
	Meta        *metadatastore.Store
	Bodies      *instancestore.Store
	Origin      instancestore.Origin
	SolverPath  string
	SolverArgs  []string
	WorkingDir  string
	BaseEnv     []string
	Timeout     time.Duration
	Grace       time.Duration
	RunUUID     uuid.UUID
	SolverUUID  *uuid.UUID
	NoUpload    bool
	NoEnv       bool
	Uploader    Uploader
	KeepLogs    bool
	SuboptError bool
	Logger      zerolog.Logger
}

// Uploader submits a finished result to the origin server.
type Uploader interface {
	Upload(ctx context.Context, req upload.Request) error
}

// Job runs a single instance to completion.
type Job struct {
	deps  Deps
	iid   ids.IID
	state atomic.Int32
}

// New creates a Job for iid, sharing deps with every other job in the run.
func New(deps Deps, iid ids.IID) *Job {
	return &Job{deps: deps, iid: iid}
}

func (j *Job) State() State { return State(j.state.Load()) }

func (j *Job) setState(s State) {
	j.state.Store(int32(s))
}

// Run drives the job through every state to completion. success reports
// whether the outcome counts as a pass for exit-code purposes (spec §4.7's
// BestKnown/Incomplete/Timeout-always-pass, Suboptimal-pass-unless-flagged
// policy).
func (j *Job) Run(ctx context.Context) (outcome Outcome, success bool, err error) {
	logger := j.deps.Logger.With().Uint32("iid", uint32(j.iid)).Logger()
	start := time.Now()
	errorOutcome := func() Outcome {
		return Outcome{IID: j.iid, State: ResultError, Elapsed: time.Since(start)}
	}

	j.setState(StateFetching)
	meta, err := j.deps.Meta.FetchInstance(ctx, j.iid)
	if err != nil {
		return errorOutcome(), false, fmt.Errorf("fetching metadata for %s: %w", j.iid, err)
	}
	body, err := j.deps.Bodies.FetchByDID(ctx, j.deps.Origin, j.iid, meta.DataDID)
	if err != nil {
		return errorOutcome(), false, fmt.Errorf("fetching body for %s: %w", j.iid, err)
	}
	numNodes, edges, err := pace.ReadAll(bytes.NewReader(body))
	if err != nil {
		return errorOutcome(), false, fmt.Errorf("parsing body for %s: %w", j.iid, err)
	}

	j.setState(StateStarting)
	env := j.deps.BaseEnv
	if !j.deps.NoEnv {
		env = solver.InstanceEnv(j.deps.BaseEnv, j.iid, numNodes, meta.Edges,
			solver.InstanceMeta{
				BestScore: meta.BestScore,
				Diameter:  meta.Diameter,
				Treewidth: meta.Treewidth,
				Planar:    meta.Planar,
				Bipartite: meta.Bipartite,
			},
			solver.RunMeta{
				Timeout:    j.deps.Timeout,
				Grace:      j.deps.Grace,
				RunUUID:    j.deps.RunUUID,
				SolverUUID: j.deps.SolverUUID,
			},
		)
	}
	exec := &solver.Executor{
		SolverPath: j.deps.SolverPath,
		Args:       j.deps.SolverArgs,
		WorkingDir: j.deps.WorkingDir,
		Env:        env,
		Timeout:    j.deps.Timeout,
		Grace:      j.deps.Grace,
		IID:        j.iid,
		Body:       body,
		NumNodes:   numNodes,
		Edges:      edges,
	}

	j.setState(StateRunning)
	logger.Trace().Msg("starting solver")
	res, err := exec.Run(ctx)
	if err != nil {
		return errorOutcome(), false, fmt.Errorf("running solver for %s: %w", j.iid, err)
	}

	j.setState(StatePostProcessing)
	result, success := classify(j.iid, res, meta.BestScore, j.deps.SuboptError)

	if !j.deps.NoUpload {
		if shouldUpload(result, j.deps.SolverUUID) {
			req := upload.BuildRequest(j.iid, j.deps.RunUUID, j.deps.SolverUUID, result.State.String(), result.Score, result.BestKnown, j.elapsedSeconds(res))
			if err := j.deps.Uploader.Upload(ctx, req); err != nil {
				logger.Warn().Err(err).Msg("solution upload failed")
			}
		}
	}

	if res.Outcome == solver.OutcomeValid && !j.deps.KeepLogs {
		if err := exec.DeleteFiles(); err != nil {
			logger.Warn().Err(err).Msg("failed to clean up solver working files")
		}
	}

	j.setState(StateFinished)
	return result, success, nil
}

func (j *Job) elapsedSeconds(res solver.Result) float64 {
	return res.Elapsed.Seconds()
}

// classify maps a raw solver outcome plus known-best score into the
// logged ResultState and the pass/fail policy from spec §4.7.
func classify(iid ids.IID, res solver.Result, bestKnown *uint32, suboptIsError bool) (Outcome, bool) {
	out := Outcome{IID: iid, Elapsed: res.Elapsed}

	switch res.Outcome {
	case solver.OutcomeValid:
		score := uint32(len(res.Set))
		out.Score = &score
		// best_score_known is only meaningful alongside a reported score:
		// Infeasible/Incomplete/Timeout/Error leave it empty (spec §4.9).
		out.BestKnown = bestKnown
		// isize-safe comparison: avoids the unsigned-underflow bug of
		// naively computing score-best when best > score.
		if bestKnown == nil || int64(score) <= int64(*bestKnown) {
			out.State = ResultBestKnown
			return out, true
		}
		out.State = ResultSuboptimal
		return out, !suboptIsError
	case solver.OutcomeInfeasible:
		out.State = ResultInfeasible
		return out, false
	case solver.OutcomeIncomplete:
		out.State = ResultIncomplete
		return out, true
	case solver.OutcomeTimeout:
		out.State = ResultTimeout
		return out, true
	default:
		out.State = ResultError
		return out, false
	}
}

func shouldUpload(o Outcome, solverUUID *uuid.UUID) bool {
	if o.State != ResultBestKnown && o.State != ResultSuboptimal {
		return false
	}
	if solverUUID != nil {
		return true
	}
	if o.Score == nil {
		return false
	}
	return upload.IsGoodEnough(*o.Score, o.BestKnown)
}
