package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/okian/innings/internal/domain/model"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

func (c *HTTPClient) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submitResult classifies one POST /events.
type submitResult int

const (
	resultAccepted submitResult = iota
	resultDuplicate
	resultFailed
)

func (c *HTTPClient) submit(ctx context.Context, ev json.RawMessage) (submitResult, string, error) {
	resp, err := c.post(ctx, "/events", ev)
	if err != nil {
		return resultFailed, "", err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return resultFailed, "", err
	}

	var ack Ack
	_ = json.Unmarshal(body, &ack)
	switch resp.StatusCode {
	case http.StatusAccepted:
		return resultAccepted, ack.EventID, nil
	case http.StatusOK:
		return resultDuplicate, ack.EventID, nil
	default:
		return resultFailed, "", fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

// snapshot is the subset of GET /state the replay verifies.
type snapshot struct {
	Version uint64 `json:"version"`
	State   struct {
		TotalRuns   int     `json:"total_runs"`
		WicketsLost int     `json:"wickets_lost"`
		OversPlayed float64 `json:"overs_played"`
	} `json:"state"`
}

func (c *HTTPClient) state(ctx context.Context) (snapshot, error) {
	var s snapshot
	resp, err := c.get(ctx, "/state")
	if err != nil {
		return s, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return s, err
	}
	if resp.StatusCode != http.StatusOK {
		return s, fmt.Errorf("state: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &s); err != nil {
		return s, fmt.Errorf("state: %w", err)
	}
	return s, nil
}

// processed returns how many events the ingester has applied or rejected,
// read from GET /stats.
func (c *HTTPClient) processed(ctx context.Context) (uint64, error) {
	resp, err := c.get(ctx, "/stats")
	if err != nil {
		return 0, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK || !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("stats: status %d", resp.StatusCode)
	}
	r := gjson.ParseBytes(body)
	return r.Get("eventsApplied").Uint() + r.Get("eventsRejected").Uint(), nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// FetchState reads the full current match state from the service.
func FetchState(ctx context.Context, cfg Config) (model.MatchState, error) {
	cfg = withDefaults(cfg)
	c := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	resp, err := c.get(ctx, "/state")
	if err != nil {
		return model.MatchState{}, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return model.MatchState{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return model.MatchState{}, fmt.Errorf("state: status %d", resp.StatusCode)
	}
	var v struct {
		State model.MatchState `json:"state"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return model.MatchState{}, fmt.Errorf("state: %w", err)
	}
	return v.State, nil
}
