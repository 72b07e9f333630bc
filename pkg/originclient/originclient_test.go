package originclient

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDownloadInstanceBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/instances/1582/body" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("p ds 1 0\n"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.HTTP.RetryMax = 0
	body, err := c.DownloadInstanceBody(context.Background(), 1582)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "p ds 1 0\n" {
		t.Fatalf("got %q", body)
	}
}

func TestDownloadMetadataDBStreams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sqlite-bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.HTTP.RetryMax = 0
	var buf bytes.Buffer
	if err := c.DownloadMetadataDB(context.Background(), &buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "sqlite-bytes" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestSolverWebsiteURL(t *testing.T) {
	c := New("https://domset.algorithm.engineering")
	got := c.SolverWebsiteURL("abc-123")
	want := "https://domset.algorithm.engineering/runs.html?solver=abc-123"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
