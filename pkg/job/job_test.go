package job

import (
	"testing"
	"time"

	"github.com/cuemby/stride/pkg/solver"
	"github.com/google/uuid"
)

func u32(v uint32) *uint32 { return &v }

func TestClassifyValidBeatsOrTiesBest(t *testing.T) {
	res := solver.Result{Outcome: solver.OutcomeValid, Set: []uint32{1, 2, 3}, Elapsed: time.Second}
	out, success := classify(7, res, u32(3), false)
	if out.State != ResultBestKnown || !success {
		t.Fatalf("got state=%s success=%v, want best/true", out.State, success)
	}
	if *out.Score != 3 {
		t.Fatalf("got score %d, want 3", *out.Score)
	}
}

func TestClassifyValidNoBestKnownIsAlwaysBest(t *testing.T) {
	res := solver.Result{Outcome: solver.OutcomeValid, Set: []uint32{1, 2}, Elapsed: time.Second}
	out, success := classify(1, res, nil, false)
	if out.State != ResultBestKnown || !success {
		t.Fatalf("got state=%s success=%v, want best/true", out.State, success)
	}
}

func TestClassifySuboptimal(t *testing.T) {
	res := solver.Result{Outcome: solver.OutcomeValid, Set: []uint32{1, 2, 3, 4, 5}, Elapsed: time.Second}
	out, success := classify(1, res, u32(2), false)
	if out.State != ResultSuboptimal || !success {
		t.Fatalf("got state=%s success=%v, want suboptimal/true (not flagged as error)", out.State, success)
	}
}

func TestClassifySuboptimalAsErrorWhenFlagged(t *testing.T) {
	res := solver.Result{Outcome: solver.OutcomeValid, Set: []uint32{1, 2, 3, 4, 5}, Elapsed: time.Second}
	out, success := classify(1, res, u32(2), true)
	if out.State != ResultSuboptimal || success {
		t.Fatalf("got state=%s success=%v, want suboptimal/false", out.State, success)
	}
}

func TestClassifyInfeasibleAlwaysFails(t *testing.T) {
	res := solver.Result{Outcome: solver.OutcomeInfeasible, Elapsed: time.Second}
	out, success := classify(1, res, nil, false)
	if out.State != ResultInfeasible || success {
		t.Fatalf("got state=%s success=%v, want infeasible/false", out.State, success)
	}
}

func TestClassifyIncompleteAndTimeoutPass(t *testing.T) {
	for _, outcome := range []solver.Outcome{solver.OutcomeIncomplete, solver.OutcomeTimeout} {
		res := solver.Result{Outcome: outcome, Elapsed: time.Second}
		_, success := classify(1, res, nil, false)
		if !success {
			t.Fatalf("outcome %v: want success=true", outcome)
		}
	}
}

func TestClassifyErrorFails(t *testing.T) {
	res := solver.Result{Outcome: solver.OutcomeError, Elapsed: time.Second}
	out, success := classify(1, res, nil, false)
	if out.State != ResultError || success {
		t.Fatalf("got state=%s success=%v, want error/false", out.State, success)
	}
}

func TestShouldUploadWithRegisteredSolverUUID(t *testing.T) {
	id := uuid.New()
	o := Outcome{State: ResultSuboptimal, Score: u32(100), BestKnown: u32(2)}
	if !shouldUpload(o, &id) {
		t.Fatal("a registered solver UUID should always upload best/suboptimal results")
	}
}

func TestShouldUploadWithoutSolverUUIDGatesOnScore(t *testing.T) {
	o := Outcome{State: ResultSuboptimal, Score: u32(1337), BestKnown: u32(1024)}
	if shouldUpload(o, nil) {
		t.Fatal("a far-worse score with no registered solver UUID should not upload")
	}
	o.Score = u32(1024)
	if !shouldUpload(o, nil) {
		t.Fatal("an exact match should upload")
	}
}

func TestShouldUploadNeverForInfeasibleOrError(t *testing.T) {
	id := uuid.New()
	for _, st := range []ResultState{ResultInfeasible, ResultError, ResultIncomplete, ResultTimeout} {
		o := Outcome{State: st}
		if shouldUpload(o, &id) {
			t.Fatalf("state %s should never upload", st)
		}
	}
}
