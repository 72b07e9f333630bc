// Package upload builds and gates solution-upload requests to the origin
// server.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Request is the JSON body posted to "api/solutions/new".
type Request struct {
	InstanceID     ids.IID    `json:"instance_id"`
	RunUUID        uuid.UUID  `json:"run_uuid"`
	SolverUUID     *uuid.UUID `json:"solver_uuid,omitempty"`
	SecondsSpent   *float64   `json:"seconds_computed,omitempty"`
	Result         string     `json:"result"`
	Score          *uint32    `json:"score,omitempty"`
	BestScoreKnown *uint32    `json:"best_score_known,omitempty"`
}

// BuildRequest constructs the upload payload for a finished job result.
// resultState is the job's classified outcome string (e.g. "best",
// "suboptimal"); score/bestKnown are only meaningful for those two states.
func BuildRequest(iid ids.IID, runUUID uuid.UUID, solverUUID *uuid.UUID, resultState string, score, bestKnown *uint32, secondsSpent float64) Request {
	return Request{
		InstanceID:     iid,
		RunUUID:        runUUID,
		SolverUUID:     solverUUID,
		SecondsSpent:   &secondsSpent,
		Result:         resultState,
		Score:          score,
		BestScoreKnown: bestKnown,
	}
}

// IsGoodEnough decides whether a solution is worth uploading when no
// explicit solver uuid is set. The formula is reproduced exactly from the
// origin scoring heuristic, using signed 64-bit arithmetic throughout so
// that a score better than the known best (a negative difference) never
// underflows.
func IsGoodEnough(score uint32, bestKnown *uint32) bool {
	if bestKnown == nil {
		return true
	}
	s, b := int64(score), int64(*bestKnown)
	return (s-b-5)*10 < b
}

// Client posts solution uploads to the origin server.
type Client struct {
	HTTP    *retryablehttp.Client
	BaseURL string
}

// NewClient builds a Client pointed at baseURL, reusing a retryable HTTP
// client for transient network/5xx failures.
func NewClient(baseURL string) *Client {
	c := retryablehttp.NewClient()
	c.Logger = nil
	return &Client{HTTP: c, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Upload posts req to the origin server's solution-submission endpoint.
func (c *Client) Upload(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling upload request: %w", err)
	}
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/solutions/new", body)
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("uploading solution for instance %s: %w", req.InstanceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("upload for instance %s rejected: %s", req.InstanceID, resp.Status)
	}
	return nil
}
