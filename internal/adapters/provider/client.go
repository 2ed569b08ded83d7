// Package provider reads live scores from a public score feed, turns
// material score changes into events and fetches historical dismissals.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://cricscore-api.appspot.com/csa"
	DefaultHistoryURL = "https://www.cricbuzz.com/api/cricket-match/"
	defaultTimeout    = 5 * time.Second
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	unknownName       = "Unknown"
	maxBodyBytes      = 4 << 20
)

// scorePattern matches "27/2 (6.0 ov)" inside a score line.
var scorePattern = regexp.MustCompile(`(\d+)/(\d+)\s*\(([\d.]+)`)

// MatchData is one reading of the live score.
type MatchData struct {
	MatchID     string
	Runs        int
	Wickets     int
	Overs       float64
	Status      string
	ScoreString string
	Batter      string
	Bowler      string
	Commentary  string
	BallsInOver int
}

type listedMatch struct {
	ID matchID `json:"id"`
	T1 string  `json:"t1"`
	T2 string  `json:"t2"`
}

// matchID accepts ids sent either as numbers or as strings.
type matchID string

func (id *matchID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = matchID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("match id: %w", err)
	}
	*id = matchID(n.String())
	return nil
}

type scoreLine struct {
	SI     string `json:"si"`
	Status string `json:"status"`
}

// Client talks to the score feed and the scorecard endpoint.
type Client struct {
	baseURL    string
	historyURL string
	matchID    string
	teams      []string
	httpClient *http.Client
}

// NewClient creates a client tracking the match between teams. matchID
// addresses the scorecard endpoint.
func NewClient(matchID string, teams []string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		historyURL: DefaultHistoryURL,
		matchID:    matchID,
		teams:      teams,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMatchData finds the live match for the configured teams and reads
// its score.
func (c *Client) FetchMatchData(ctx context.Context) (MatchData, error) {
	body, err := c.doGet(ctx, c.baseURL, nil)
	if err != nil {
		return MatchData{}, fmt.Errorf("provider: list matches: %w", err)
	}
	var matches []listedMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return MatchData{}, fmt.Errorf("provider: decode matches: %w", err)
	}

	id, ok := c.pick(matches)
	if !ok {
		return MatchData{}, ErrNoMatch
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return MatchData{}, fmt.Errorf("provider: base url: %w", err)
	}
	q := u.Query()
	q.Set("id", id)
	u.RawQuery = q.Encode()

	body, err = c.doGet(ctx, u.String(), nil)
	if err != nil {
		return MatchData{}, fmt.Errorf("provider: get score %s: %w", id, err)
	}
	var lines []scoreLine
	if err := json.Unmarshal(body, &lines); err != nil {
		return MatchData{}, fmt.Errorf("provider: decode score: %w", err)
	}
	if len(lines) == 0 {
		return MatchData{}, ErrEmptyScore
	}

	data := ParseScore(lines[0].SI)
	data.MatchID = id
	data.Status = lines[0].Status
	data.Commentary = lines[0].Status
	return data, nil
}

// ParseScore reads runs, wickets and overs from a score line such as
// "India: 27/2 (6.0 ov)". Unparsable lines yield zero totals.
func ParseScore(si string) MatchData {
	data := MatchData{ScoreString: si, Batter: unknownName, Bowler: unknownName, BallsInOver: 1}
	m := scorePattern.FindStringSubmatch(si)
	if m == nil {
		return data
	}
	data.Runs, _ = strconv.Atoi(m[1])
	data.Wickets, _ = strconv.Atoi(m[2])
	data.Overs, _ = strconv.ParseFloat(strings.TrimRight(m[3], "."), 64)
	return data
}

func (c *Client) pick(matches []listedMatch) (string, bool) {
	for _, m := range matches {
		t1, t2 := strings.ToLower(m.T1), strings.ToLower(m.T2)
		for _, team := range c.teams {
			team = strings.ToLower(strings.TrimSpace(team))
			if team == "" {
				continue
			}
			if strings.Contains(t1, team) || strings.Contains(t2, team) {
				return string(m.ID), true
			}
		}
	}
	return "", false
}

func (c *Client) doGet(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return body, nil
}
