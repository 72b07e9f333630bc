// Package solver runs an external solver binary against one instance body,
// enforcing a timeout, a SIGTERM grace period, and finally SIGKILL, then
// verifies whatever solution the solver produced.
package solver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/cuemby/stride/pkg/pace"
	"github.com/google/uuid"
)

// Outcome classifies how a solver invocation ended.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeInfeasible
	OutcomeError
	OutcomeTimeout
	OutcomeIncomplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeInfeasible:
		return "infeasible"
	case OutcomeError:
		return "error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// Result is everything the Job needs to classify and report one run.
type Result struct {
	Outcome Outcome
	Set     []uint32 // populated iff Outcome == OutcomeValid
	Elapsed time.Duration
}

// Executor runs one solver invocation against one instance.
type Executor struct {
	SolverPath string
	Args       []string
	WorkingDir string
	Env        []string
	Timeout    time.Duration
	Grace      time.Duration
	IID        ids.IID
	Body       []byte
	NumNodes   uint32
	Edges      []pace.Edge
}

func (e *Executor) filename(suffix string) string {
	return filepath.Join(e.WorkingDir, fmt.Sprintf("iid%s.%s", e.IID, suffix))
}

const (
	suffixStdin  = "stdin.gr"
	suffixStdout = "stdout"
	suffixStderr = "stderr"
)

// Run spawns the solver, waits for it to finish (or terminates it on
// timeout/grace expiry), and verifies its output.
func (e *Executor) Run(ctx context.Context) (Result, error) {
	stdinPath := e.filename(suffixStdin)
	if err := os.WriteFile(stdinPath, e.Body, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing solver stdin file: %w", err)
	}

	stdoutFile, err := os.Create(e.filename(suffixStdout))
	if err != nil {
		return Result{}, fmt.Errorf("creating solver stdout file: %w", err)
	}
	defer stdoutFile.Close()

	stderrFile, err := os.Create(e.filename(suffixStderr))
	if err != nil {
		return Result{}, fmt.Errorf("creating solver stderr file: %w", err)
	}
	defer stderrFile.Close()

	stdinFile, err := os.Open(stdinPath)
	if err != nil {
		return Result{}, fmt.Errorf("reopening solver stdin file: %w", err)
	}
	defer stdinFile.Close()

	cmd := exec.Command(e.SolverPath, e.Args...)
	cmd.Dir = e.WorkingDir
	cmd.Env = e.Env
	cmd.Stdin = stdinFile
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("starting solver: %w", err)
	}

	exitCode, waitErr := e.waitWithTimeoutAndGrace(ctx, cmd)
	elapsed := time.Since(start)

	switch exitCode {
	case childTimeout:
		return Result{Outcome: OutcomeTimeout, Elapsed: elapsed}, nil
	case childWithinGrace:
		// Exited on its own after SIGTERM but before the grace deadline: a
		// clean exit is verified normally, a non-zero exit still counts as
		// a timeout (the solver was killed for being too slow either way).
		if waitErr != nil {
			return Result{Outcome: OutcomeTimeout, Elapsed: elapsed}, nil
		}
	case childBeforeTimeout:
		if waitErr != nil {
			return Result{Outcome: OutcomeError, Elapsed: elapsed}, nil
		}
	}

	return e.verify(elapsed)
}

type childExitCode int

const (
	childBeforeTimeout childExitCode = iota
	childWithinGrace
	childTimeout
)

// waitWithTimeoutAndGrace waits for cmd to exit. If Timeout elapses first,
// it sends SIGTERM and waits up to Grace longer; if the process still has
// not exited, it sends SIGKILL.
func (e *Executor) waitWithTimeoutAndGrace(ctx context.Context, cmd *exec.Cmd) (childExitCode, error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timeout := time.NewTimer(e.Timeout)
	defer timeout.Stop()

	select {
	case err := <-done:
		return childBeforeTimeout, err
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
	case <-timeout.C:
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}

	grace := time.NewTimer(e.Grace)
	defer grace.Stop()

	select {
	case err := <-done:
		return childWithinGrace, err
	case <-grace.C:
		_ = cmd.Process.Kill()
		<-done
		return childTimeout, nil
	}
}

func (e *Executor) verify(elapsed time.Duration) (Result, error) {
	stdout, err := os.Open(e.filename(suffixStdout))
	if err != nil {
		return Result{}, fmt.Errorf("reopening solver stdout: %w", err)
	}
	defer stdout.Close()

	sol, outcome, err := pace.ReadSolution(bufio.NewReader(stdout))
	if err != nil || outcome == pace.OutcomeSyntaxError {
		return Result{Outcome: OutcomeError, Elapsed: elapsed}, nil
	}
	if outcome == pace.OutcomeIncomplete {
		return Result{Outcome: OutcomeIncomplete, Elapsed: elapsed}, nil
	}
	valid, err := pace.ValidDominatingSet(sol, e.NumNodes, e.Edges)
	if err != nil {
		return Result{Outcome: OutcomeError, Elapsed: elapsed}, nil
	}
	if !valid {
		return Result{Outcome: OutcomeInfeasible, Elapsed: elapsed}, nil
	}
	return Result{Outcome: OutcomeValid, Set: sol.Nodes, Elapsed: elapsed}, nil
}

// DeleteFiles removes the stdin/stdout/stderr working files for this
// invocation, used after a successful run when keep-logs-on-success is not
// set.
func (e *Executor) DeleteFiles() error {
	for _, suffix := range []string{suffixStdin, suffixStdout, suffixStderr} {
		if err := os.Remove(e.filename(suffix)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", suffix, err)
		}
	}
	return nil
}

// InstanceMeta carries the optional per-instance metadata fields that, when
// present, are exposed to the solver as STRIDE_* environment variables.
type InstanceMeta struct {
	BestScore *uint32
	Diameter  *uint32
	Treewidth *uint32
	Planar    *bool
	Bipartite *bool
}

// RunMeta carries the per-run knobs exposed to the solver alongside the
// per-instance ones.
type RunMeta struct {
	Timeout    time.Duration
	Grace      time.Duration
	RunUUID    uuid.UUID
	SolverUUID *uuid.UUID
}

// InstanceEnv builds the STRIDE_* environment variables the solver process
// is invoked with, describing the instance and run it has been handed.
// Optional fields (meta.BestScore, Diameter, Treewidth, Planar, Bipartite,
// run.SolverUUID) are present only when set.
func InstanceEnv(base []string, iid ids.IID, numNodes, numEdges uint32, meta InstanceMeta, run RunMeta) []string {
	env := append([]string{}, base...)
	env = append(env,
		fmt.Sprintf("STRIDE_IID=%s", iid),
		fmt.Sprintf("STRIDE_NODES=%d", numNodes),
		fmt.Sprintf("STRIDE_EDGES=%d", numEdges),
	)
	if meta.BestScore != nil {
		env = append(env, fmt.Sprintf("STRIDE_BEST_SCORE=%d", *meta.BestScore))
	}
	if meta.Diameter != nil {
		env = append(env, fmt.Sprintf("STRIDE_DIAMETER=%d", *meta.Diameter))
	}
	if meta.Treewidth != nil {
		env = append(env, fmt.Sprintf("STRIDE_TREEWIDTH=%d", *meta.Treewidth))
	}
	if meta.Planar != nil {
		env = append(env, fmt.Sprintf("STRIDE_PLANAR=%t", *meta.Planar))
	}
	if meta.Bipartite != nil {
		env = append(env, fmt.Sprintf("STRIDE_BIPARTITE=%t", *meta.Bipartite))
	}
	env = append(env,
		fmt.Sprintf("STRIDE_TIMEOUT_SEC=%d", int64(run.Timeout.Seconds())),
		fmt.Sprintf("STRIDE_GRACE_SEC=%d", int64(run.Grace.Seconds())),
		fmt.Sprintf("STRIDE_RUN_UUID=%s", run.RunUUID),
	)
	if run.SolverUUID != nil {
		env = append(env, fmt.Sprintf("STRIDE_SOLVER_UUID=%s", run.SolverUUID))
	}
	return env
}
