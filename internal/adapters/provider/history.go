package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/okian/innings/internal/domain/model"
)

// FetchDismissals reads the players already out from the match scorecard.
// Both the flat "scorecard.batting" list and per-innings
// "scorecard.innings[].batting" lists are read.
func (c *Client) FetchDismissals(ctx context.Context) ([]model.DismissedPlayer, error) {
	header := http.Header{}
	header.Set("User-Agent", userAgent)
	header.Set("Accept", "application/json")

	body, err := c.doGet(ctx, c.historyURL+url.PathEscape(c.matchID), header)
	if err != nil {
		return nil, fmt.Errorf("provider: get scorecard %s: %w", c.matchID, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("provider: decode scorecard %s: invalid json", c.matchID)
	}
	return ParseDismissals(body)
}

// ParseDismissals extracts dismissed players from a scorecard document.
func ParseDismissals(body []byte) ([]model.DismissedPlayer, error) {
	doc := gjson.ParseBytes(body)
	if !doc.Get("scorecard").Exists() && !doc.Get("batting").Exists() {
		return nil, ErrNoScorecard
	}

	out := []model.DismissedPlayer{}
	collect := func(batting gjson.Result) {
		if !batting.IsArray() {
			return
		}
		batting.ForEach(func(_, p gjson.Result) bool {
			if p.Get("dismissed").Bool() || strings.EqualFold(p.Get("status").String(), "out") {
				out = append(out, dismissedFrom(p))
			}
			return true
		})
	}

	collect(doc.Get("scorecard.batting"))
	doc.Get("scorecard.innings").ForEach(func(_, inning gjson.Result) bool {
		collect(inning.Get("batting"))
		return true
	})
	return out, nil
}

func dismissedFrom(p gjson.Result) model.DismissedPlayer {
	d := model.DismissedPlayer{
		Name:             strOr(p.Get("name"), unknownName),
		Runs:             int(p.Get("runs").Int()),
		BallsFaced:       int(p.Get("balls").Int()),
		DismissalMode:    model.DismissalMode(strOr(p.Get("dismissal_type"), string(model.DismissalUnknown))),
		Bowler:           strOr(p.Get("bowler"), model.UnknownActor),
		DismissedAtScore: int(p.Get("score_at_dismissal").Int()),
		DismissedAtOvers: p.Get("overs_at_dismissal").Float(),
	}
	if f := p.Get("fielder"); f.Exists() && f.Type != gjson.Null && f.String() != "" {
		d.Fielder = model.Ptr(f.String())
	}
	return d
}

func strOr(r gjson.Result, def string) string {
	if s := strings.TrimSpace(r.String()); s != "" {
		return s
	}
	return def
}
