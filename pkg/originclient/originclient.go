// Package originclient talks to the origin server: downloading instance
// bodies and the metadata/instance databases. Solution uploads are sent
// by pkg/upload.
package originclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/hashicorp/go-retryablehttp"
)

// DownloadProgress is the interface an external progress renderer
// implements to observe a download in progress. stride itself never
// renders a progress bar; it only calls these hooks.
type DownloadProgress interface {
	Init(totalSize int64)
	Update(downloaded int64)
	Done()
}

type noopProgress struct{}

func (noopProgress) Init(int64)   {}
func (noopProgress) Update(int64) {}
func (noopProgress) Done()        {}

// Client is a retrying HTTP client bound to one origin server.
type Client struct {
	HTTP    *retryablehttp.Client
	BaseURL string
}

// New builds a Client pointed at baseURL.
func New(baseURL string) *Client {
	c := retryablehttp.NewClient()
	c.Logger = nil
	return &Client{HTTP: c, BaseURL: strings.TrimRight(baseURL, "/")}
}

// DownloadInstanceBody fetches the raw PACE text body for iid.
func (c *Client) DownloadInstanceBody(ctx context.Context, iid ids.IID) ([]byte, error) {
	return c.download(ctx, fmt.Sprintf("%s/api/instances/%s/body", c.BaseURL, iid), noopProgress{})
}

// DownloadMetadataDB streams the whole metadata database file to w,
// reporting progress via cb (nil means no reporting).
func (c *Client) DownloadMetadataDB(ctx context.Context, w io.Writer, cb DownloadProgress) error {
	return c.downloadTo(ctx, c.BaseURL+"/api/metadata.db", w, cb)
}

// DownloadInstancesDB streams the whole instance-body database file to w.
func (c *Client) DownloadInstancesDB(ctx context.Context, w io.Writer, cb DownloadProgress) error {
	return c.downloadTo(ctx, c.BaseURL+"/api/instances.db", w, cb)
}

func (c *Client) download(ctx context.Context, url string, cb DownloadProgress) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	if cb == nil {
		cb = noopProgress{}
	}
	cb.Init(resp.ContentLength)
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", url, err)
	}
	cb.Update(int64(len(data)))
	cb.Done()
	return data, nil
}

func (c *Client) downloadTo(ctx context.Context, url string, w io.Writer, cb DownloadProgress) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	if cb == nil {
		cb = noopProgress{}
	}
	cb.Init(resp.ContentLength)

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing %s: %w", url, werr)
			}
			written += int64(n)
			cb.Update(written)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("reading %s: %w", url, rerr)
		}
	}
	cb.Done()
	return nil
}

// SolverWebsiteURL builds the origin-hosted results page link for a solver
// uuid, printed to the operator after registration.
func (c *Client) SolverWebsiteURL(solverUUID string) string {
	return fmt.Sprintf("%s/runs.html?solver=%s", c.BaseURL, solverUUID)
}
