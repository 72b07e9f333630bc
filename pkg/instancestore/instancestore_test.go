package instancestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cuemby/stride/pkg/ids"
)

type fakeOrigin struct {
	calls int
	body  []byte
}

func (f *fakeOrigin) DownloadInstanceBody(ctx context.Context, iid ids.IID) ([]byte, error) {
	f.calls++
	return f.body, nil
}

func TestPutGetRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "instances.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if err := s.Put(7, []byte("p ds 1 0\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, ok, err := s.Get(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(body) != "p ds 1 0\n" {
		t.Fatalf("got %q", body)
	}
}

func TestFetchByDIDFallsBackToOriginOnMiss(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "instances.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	origin := &fakeOrigin{body: []byte("p ds 2 1\n1 2\n")}
	body, err := s.FetchByDID(context.Background(), origin, 1582, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "p ds 2 1\n1 2\n" {
		t.Fatalf("got %q", body)
	}
	if origin.calls != 1 {
		t.Fatalf("expected 1 origin call, got %d", origin.calls)
	}

	// Second fetch must be served from cache.
	if _, err := s.FetchByDID(context.Background(), origin, 1582, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if origin.calls != 1 {
		t.Fatalf("expected origin to be called only once, got %d", origin.calls)
	}
}
