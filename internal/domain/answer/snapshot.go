package answer

import (
	"fmt"

	"github.com/okian/innings/internal/domain/classify"
	"github.com/okian/innings/internal/domain/model"
)

// BatterLine is the current batter as shown to the generator.
type BatterLine struct {
	Name       string `json:"name"`
	Runs       int    `json:"runs"`
	BallsFaced int    `json:"balls_faced"`
}

// DismissalLine is one dismissed player as shown to the generator.
type DismissalLine struct {
	Name          string `json:"name"`
	Runs          int    `json:"runs"`
	DismissalMode string `json:"dismissal_mode"`
	Bowler        string `json:"bowler"`
	Fielder       string `json:"fielder,omitempty"`
}

// EventLine is one recent event with the detail tactical answers need.
type EventLine struct {
	Type          string `json:"type"`
	Batter        string `json:"batter,omitempty"`
	Bowler        string `json:"bowler,omitempty"`
	Commentary    string `json:"commentary,omitempty"`
	DismissalMode string `json:"dismissal_mode,omitempty"`
	Fielder       string `json:"fielder,omitempty"`
	RunsScored    int    `json:"runs_scored,omitempty"`
}

// Snapshot is the flattened view of a match state handed to a Generator.
// Which optional parts are filled depends on the label.
type Snapshot struct {
	TeamBatting      string          `json:"team_batting"`
	TeamFielding     string          `json:"team_fielding"`
	TotalRuns        int             `json:"total_runs"`
	WicketsLost      int             `json:"wickets_lost"`
	OversPlayed      float64         `json:"overs_played"`
	Target           int             `json:"target"`
	OversRemaining   float64         `json:"overs_remaining"`
	WicketsRemaining int             `json:"wickets_remaining"`
	RunsNeeded       int             `json:"runs_needed"`
	PDraw            float64         `json:"p_draw"`
	PFieldingWin     float64         `json:"p_fielding_win"`
	CurrentBatter    *BatterLine     `json:"current_batter,omitempty"`
	Dismissed        []DismissalLine `json:"dismissed_players,omitempty"`
	RecentSummary    []string        `json:"recent_summary,omitempty"`
	RecentDetail     []EventLine     `json:"recent_events,omitempty"`
}

const (
	momentumSummaryEvents = 5
	tacticalDetailEvents  = 3
)

// Flatten builds the generator view of s for the given label.
func Flatten(s model.MatchState, label classify.Label, totalOvers float64) Snapshot {
	snap := Snapshot{
		TeamBatting:      s.TeamBatting,
		TeamFielding:     s.TeamFielding,
		TotalRuns:        s.TotalRuns,
		WicketsLost:      s.WicketsLost,
		OversPlayed:      s.OversPlayed,
		Target:           s.Target,
		OversRemaining:   s.OversRemaining(totalOvers),
		WicketsRemaining: s.WicketsRemaining(),
		RunsNeeded:       s.RunsNeeded(),
		PDraw:            s.PDraw,
		PFieldingWin:     s.PFieldingWin,
	}

	switch label {
	case classify.Stats, classify.Tactical:
		snap.CurrentBatter = &BatterLine{
			Name:       s.CurrentBatter.Name,
			Runs:       s.CurrentBatter.Runs,
			BallsFaced: s.CurrentBatter.BallsFaced,
		}
		snap.Dismissed = dismissalLines(s.DismissedPlayers)
		if label == classify.Tactical {
			snap.RecentDetail = eventLines(s.LastEvents(tacticalDetailEvents))
		}
	case classify.Momentum:
		snap.RecentSummary = summarize(s.LastEvents(momentumSummaryEvents))
	}
	return snap
}

func dismissalLines(ds []model.DismissedPlayer) []DismissalLine {
	out := make([]DismissalLine, 0, len(ds))
	for _, d := range ds {
		out = append(out, DismissalLine{
			Name:          d.Name,
			Runs:          d.Runs,
			DismissalMode: string(d.DismissalMode),
			Bowler:        d.Bowler,
			Fielder:       d.FielderName(),
		})
	}
	return out
}

func eventLines(evs []model.Event) []EventLine {
	out := make([]EventLine, 0, len(evs))
	for _, ev := range evs {
		line := EventLine{
			Type:       string(ev.Type),
			Batter:     ev.BatterName(),
			Bowler:     ev.BowlerName(),
			Commentary: ev.CommentaryText(),
		}
		switch ev.Type {
		case model.EventWicket:
			line.DismissalMode = string(ev.Mode())
			line.Fielder = ev.FielderName()
		case model.EventRuns:
			line.RunsScored = ev.RunsScored
		}
		out = append(out, line)
	}
	return out
}

// summarize keeps the wickets and boundaries among evs.
func summarize(evs []model.Event) []string {
	var out []string
	for _, ev := range evs {
		switch {
		case ev.Type == model.EventWicket:
			out = append(out, fmt.Sprintf("%s dismissed by %s", ev.BatterName(), ev.BowlerName()))
		case ev.Type == model.EventRuns && ev.RunsScored >= 4:
			out = append(out, fmt.Sprintf("%s scored %d runs", ev.BatterName(), ev.RunsScored))
		}
	}
	return out
}
