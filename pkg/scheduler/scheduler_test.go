package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/cuemby/stride/pkg/instancestore"
	"github.com/cuemby/stride/pkg/job"
	"github.com/cuemby/stride/pkg/metadatastore"
	"github.com/cuemby/stride/pkg/originclient"
	"github.com/google/uuid"
)

func TestSchedulerRunDrainsQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("p ds 2 1\n1 2\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	meta, err := metadatastore.Open(filepath.Join(dir, "metadata.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer meta.Close()

	bodies, err := instancestore.Open(filepath.Join(dir, "instances.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer bodies.Close()

	ctx := context.Background()
	for _, iid := range []ids.IID{1, 2, 3} {
		if err := meta.Upsert(ctx, metadatastore.Model{IID: iid, DataDID: ids.DID(iid), Nodes: 2, Edges: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	origin := originclient.New(srv.URL)
	origin.HTTP.RetryMax = 0

	deps := job.Deps{
		Meta:       meta,
		Bodies:     bodies,
		Origin:     origin,
		SolverPath: "/bin/sh",
		SolverArgs: []string{"-c", `printf '1\n1\n'`},
		WorkingDir: dir,
		BaseEnv:    os.Environ(),
		Timeout:    time.Second,
		Grace:      time.Second,
		RunUUID:    uuid.New(),
		NoUpload:   true,
	}

	sched := New(deps, 2, nil, nil)
	failed, err := sched.Run(ctx, []ids.IID{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failed {
		t.Fatal("expected no job to count as a failure")
	}

	snap := sched.Snapshot()
	if snap.Finished != 3 || snap.BestKnown != 3 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
