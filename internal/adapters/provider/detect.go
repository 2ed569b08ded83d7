package provider

import (
	"math"
	"time"

	"github.com/okian/innings/internal/domain/model"
)

// oversEpsilon is the smallest overs movement treated as a change.
const oversEpsilon = 0.1

// Reading is the part of a score that change detection compares.
type Reading struct {
	Runs    int
	Wickets int
	Overs   float64
}

// Reading returns the comparable totals of d.
func (d MatchData) Reading() Reading {
	return Reading{Runs: d.Runs, Wickets: d.Wickets, Overs: d.Overs}
}

// Same reports whether r and o describe the same score.
func (r Reading) Same(o Reading) bool {
	return r.Runs == o.Runs && r.Wickets == o.Wickets && math.Abs(r.Overs-o.Overs) < oversEpsilon
}

// DetectEvent turns the difference between data and state into an event.
// It returns false when nothing material changed. A wicket count increase
// wins over any runs scored in the same interval.
func DetectEvent(data MatchData, state model.MatchState, now time.Time) (model.Event, bool) {
	prior := Reading{Runs: state.TotalRuns, Wickets: state.WicketsLost, Overs: state.OversPlayed}
	if data.Reading().Same(prior) {
		return model.Event{}, false
	}

	ev := model.Event{
		Timestamp:      now,
		Type:           model.EventRuns,
		RunsScored:     data.Runs - state.TotalRuns,
		Batter:         model.Ptr(orUnknown(data.Batter)),
		Bowler:         model.Ptr(orUnknown(data.Bowler)),
		OversPlayed:    data.Overs,
		CurrentScore:   data.Runs,
		CurrentWickets: data.Wickets,
		BallsInOver:    data.BallsInOver,
	}
	if data.Wickets > state.WicketsLost {
		ev.Type = model.EventWicket
		ev.RunsScored = 0
	}
	if ev.BallsInOver < 1 || ev.BallsInOver > 6 {
		ev.BallsInOver = 1
	}
	if c := data.Commentary; c != "" {
		ev.Commentary = model.Ptr(c)
	} else if data.Status != "" {
		ev.Commentary = model.Ptr(data.Status)
	}
	return ev, true
}

func orUnknown(s string) string {
	if s == "" {
		return unknownName
	}
	return s
}
