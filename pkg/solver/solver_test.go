package solver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/stride/pkg/pace"
	"github.com/google/uuid"
)

func newExecutor(t *testing.T, script string, timeout, grace time.Duration) *Executor {
	t.Helper()
	return &Executor{
		SolverPath: "/bin/sh",
		Args:       []string{"-c", script},
		WorkingDir: t.TempDir(),
		Env:        os.Environ(),
		Timeout:    timeout,
		Grace:      grace,
		IID:        1582,
		Body:       []byte("p ds 2 1\n1 2\n"),
		NumNodes:   2,
		Edges:      []pace.Edge{{U: 1, V: 2}},
	}
}

func TestRunNormalExitValid(t *testing.T) {
	e := newExecutor(t, `printf '1\n1\n'`, time.Second, time.Second)
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeValid {
		t.Fatalf("got outcome %v, want valid", res.Outcome)
	}
}

func TestRunInfeasible(t *testing.T) {
	e := newExecutor(t, `printf '0\n'`, time.Second, time.Second)
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeInfeasible {
		t.Fatalf("got outcome %v, want infeasible", res.Outcome)
	}
}

func TestRunIncompleteOnEmptyOutput(t *testing.T) {
	e := newExecutor(t, `true`, time.Second, time.Second)
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeIncomplete {
		t.Fatalf("got outcome %v, want incomplete", res.Outcome)
	}
}

func TestRunSigtermCleanExitWithinGraceIsVerifiedNormally(t *testing.T) {
	// Traps SIGTERM, prints a valid solution, and exits 0 promptly: a
	// cooperative solver that beats the grace deadline gets its output
	// verified like any other run, not classified as Timeout.
	e := newExecutor(t, `trap 'printf "1\n1\n"; exit 0' TERM; sleep 5 & wait`, 200*time.Millisecond, 2*time.Second)
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeValid {
		t.Fatalf("got outcome %v, want valid", res.Outcome)
	}
}

func TestRunSigtermNonZeroExitWithinGraceIsTimeout(t *testing.T) {
	// Traps SIGTERM but exits non-zero within the grace period: still a
	// failed run, classified as Timeout rather than verified.
	e := newExecutor(t, `trap 'exit 1' TERM; sleep 5 & wait`, 200*time.Millisecond, 2*time.Second)
	start := time.Now()
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("got outcome %v, want timeout", res.Outcome)
	}
	if time.Since(start) < 200*time.Millisecond {
		t.Fatal("expected the wait to take at least the timeout duration")
	}
}

func TestRunIgnoresSigtermRequiresKill(t *testing.T) {
	e := newExecutor(t, `trap '' TERM; sleep 5`, 100*time.Millisecond, 200*time.Millisecond)
	start := time.Now()
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("got outcome %v, want timeout", res.Outcome)
	}
	if time.Since(start) < 300*time.Millisecond {
		t.Fatal("expected the wait to span timeout+grace before the kill took effect")
	}
}

func TestDeleteFiles(t *testing.T) {
	e := newExecutor(t, `printf '1\n1\n'`, time.Second, time.Second)
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.DeleteFiles(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.WorkingDir, "iid1582.stdout")); !os.IsNotExist(err) {
		t.Fatal("expected stdout file to be removed")
	}
}

func TestInstanceEnvMinimal(t *testing.T) {
	runUUID := uuid.New()
	env := InstanceEnv(nil, 1582, 9, 8, InstanceMeta{}, RunMeta{
		Timeout: 300 * time.Second,
		Grace:   5 * time.Second,
		RunUUID: runUUID,
	})
	want := map[string]bool{
		"STRIDE_IID=1582":         true,
		"STRIDE_NODES=9":          true,
		"STRIDE_EDGES=8":          true,
		"STRIDE_TIMEOUT_SEC=300":  true,
		"STRIDE_GRACE_SEC=5":      true,
		"STRIDE_RUN_UUID=" + runUUID.String(): true,
	}
	seen := map[string]bool{}
	for _, kv := range env {
		seen[kv] = true
	}
	for k := range want {
		if !seen[k] {
			t.Fatalf("missing expected env entry %q in %v", k, env)
		}
	}
	for _, kv := range env {
		switch {
		case kv == "STRIDE_IID=1582", kv == "STRIDE_NODES=9", kv == "STRIDE_EDGES=8",
			kv == "STRIDE_TIMEOUT_SEC=300", kv == "STRIDE_GRACE_SEC=5", kv == "STRIDE_RUN_UUID="+runUUID.String():
		default:
			t.Fatalf("unexpected env entry %q when no optional metadata or solver UUID is set", kv)
		}
	}
}

func TestInstanceEnvOptionalFieldsPresentOnly(t *testing.T) {
	best := uint32(42)
	planar := true
	bipartite := false
	solverUUID := uuid.New()

	env := InstanceEnv(nil, 1, 2, 1, InstanceMeta{
		BestScore: &best,
		Planar:    &planar,
		Bipartite: &bipartite,
		// Diameter and Treewidth intentionally left nil.
	}, RunMeta{
		Timeout:    time.Second,
		Grace:      time.Second,
		RunUUID:    uuid.New(),
		SolverUUID: &solverUUID,
	})

	want := map[string]bool{
		"STRIDE_BEST_SCORE=42":               true,
		"STRIDE_PLANAR=true":                 true,
		"STRIDE_BIPARTITE=false":              true,
		"STRIDE_SOLVER_UUID=" + solverUUID.String(): true,
	}
	for _, kv := range env {
		delete(want, kv)
		if len(kv) >= len("STRIDE_DIAMETER=") && kv[:len("STRIDE_DIAMETER=")] == "STRIDE_DIAMETER=" {
			t.Fatalf("unexpected STRIDE_DIAMETER entry for a nil Diameter: %q", kv)
		}
		if len(kv) >= len("STRIDE_TREEWIDTH=") && kv[:len("STRIDE_TREEWIDTH=")] == "STRIDE_TREEWIDTH=" {
			t.Fatalf("unexpected STRIDE_TREEWIDTH entry for a nil Treewidth: %q", kv)
		}
	}
	if len(want) != 0 {
		t.Fatalf("missing expected env entries: %v", want)
	}
}
