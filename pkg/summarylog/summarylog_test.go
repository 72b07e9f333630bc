package summarylog

import (
	"os"
	"path/filepath"
	"testing"
)

func uint32p(v uint32) *uint32 { return &v }

func TestLogJobResultMatchesReferenceFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := []Row{
		{IID: 1, TimeSeconds: 1, State: "best", Score: uint32p(42), BestScoreKnown: uint32p(42)},
		{IID: 2, TimeSeconds: 4, State: "suboptimal", Score: uint32p(1337), BestScoreKnown: uint32p(1024)},
		{IID: 3, TimeSeconds: 2, State: "error"},
	}
	for _, r := range rows {
		if err := l.LogJobResult(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "iid,time_sec,state,score,best_score_known\n" +
		"1,1,best,42,42\n" +
		"2,4,suboptimal,1337,1024\n" +
		"3,2,error,,\n"
	if string(got) != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}
