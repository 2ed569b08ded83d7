package answer

import (
	"fmt"
	"strings"

	"github.com/okian/innings/internal/domain/classify"
	"github.com/okian/innings/internal/domain/model"
)

const momentumRunsThreshold = 20

// Fallbacks renders deterministic answers straight from the match state.
type Fallbacks struct {
	TotalOvers     float64
	MomentumWindow int
}

// Render answers query for label without any external call.
func (f Fallbacks) Render(label classify.Label, query string, s model.MatchState) string {
	switch label {
	case classify.Probability:
		return f.probability(s)
	case classify.Momentum:
		return f.momentum(s)
	case classify.Tactical:
		return f.tactical(s, query)
	default:
		return f.stats(s, query)
	}
}

func (f Fallbacks) probability(s model.MatchState) string {
	return fmt.Sprintf("P(Draw): %s, P(%s Win): %s. %s need to bat %.0f+ overs without losing more than %d wickets.",
		percent(s.PDraw), s.TeamFielding, percent(s.PFieldingWin),
		s.TeamBatting, s.OversRemaining(f.TotalOvers), s.WicketsRemaining()-1)
}

func (f Fallbacks) momentum(s model.MatchState) string {
	wickets, runs := 0, 0
	for _, ev := range s.LastEvents(f.MomentumWindow) {
		switch ev.Type {
		case model.EventWicket:
			wickets++
		case model.EventRuns:
			runs += ev.RunsScored
		}
	}
	switch {
	case wickets > 0:
		return fmt.Sprintf("%s has momentum with recent wickets.", s.TeamFielding)
	case runs >= momentumRunsThreshold:
		return fmt.Sprintf("%s building momentum with good scoring.", s.TeamBatting)
	default:
		return "Match is balanced, both teams fighting."
	}
}

func (f Fallbacks) tactical(s model.MatchState, query string) string {
	if d, ok := namedDismissal(s, query); ok {
		return fmt.Sprintf("%s scored %d runs and was dismissed %s b %s.", d.Name, d.Runs, how(d.Fielder, d.DismissalMode), d.Bowler)
	}
	if len(s.RecentEvents) == 0 {
		return "No recent events to analyze."
	}
	last := s.RecentEvents[len(s.RecentEvents)-1]
	if last.Type == model.EventWicket {
		commentary := last.CommentaryText()
		if commentary == "" {
			commentary = "Wicket falls!"
		}
		return fmt.Sprintf("%s dismissed %s b %s. %s", last.BatterName(), how(last.Fielder, last.Mode()), last.BowlerName(), commentary)
	}
	commentary := last.CommentaryText()
	if commentary == "" {
		commentary = "No commentary available."
	}
	return "Last ball: " + commentary
}

func (f Fallbacks) stats(s model.MatchState, query string) string {
	q := strings.ToLower(query)
	has := func(words ...string) bool { return containsAny(q, words...) }
	team := s.TeamBatting
	overs := fmt.Sprintf("%.1f", s.OversPlayed)
	remaining := s.OversRemaining(f.TotalOvers)
	batter := s.CurrentBatter

	switch {
	case has("wicket") && has("remain", "left"):
		return fmt.Sprintf("%s has %d wickets remaining (currently %d down).", team, s.WicketsRemaining(), s.WicketsLost)
	case has("wicket") && has("lost"):
		return fmt.Sprintf("%s has lost %d wickets so far.", team, s.WicketsLost)
	case has("bat") && has("who", "is"):
		return fmt.Sprintf("Currently batting: %s (%d* runs, %d balls).", batter.Name, batter.Runs, batter.BallsFaced)
	case has("run") && has("need", "require", "win"):
		return fmt.Sprintf("%s needs %d more runs to win (currently %d/%d).", team, s.RunsNeeded(), s.TotalRuns, s.WicketsLost)
	case has("run") && has("score", "total"):
		return fmt.Sprintf("%s's current score: %d runs for %d wickets.", team, s.TotalRuns, s.WicketsLost)
	}

	if d, ok := namedDismissal(s, query); ok {
		return fmt.Sprintf("%s scored %d runs. Dismissed: %s b %s.", d.Name, d.Runs, how(d.Fielder, d.DismissalMode), d.Bowler)
	}
	if has("out", "dismiss") && has("how", "what", "who", "when") {
		if d, ok := s.LastDismissal(); ok {
			return fmt.Sprintf("%s scored %d runs. Dismissed: %s b %s.", d.Name, d.Runs, how(d.Fielder, d.DismissalMode), d.Bowler)
		}
	}

	switch {
	case has("over") && has("remain", "left"):
		return fmt.Sprintf("Approximately %.1f overs remaining in the day (currently at %s overs).", remaining, overs)
	case has("target"):
		return fmt.Sprintf("%s's target is %d runs. Currently at %d/%d.", team, s.Target, s.TotalRuns, s.WicketsLost)
	}

	return fmt.Sprintf("%s: %d for %d in %s overs. Target: %d. Overs remaining: ~%.1f. Wickets remaining: %d. Currently batting: %s (%d*).",
		team, s.TotalRuns, s.WicketsLost, overs, s.Target, remaining, s.WicketsRemaining(), batter.Name, batter.Runs)
}

// namedDismissal finds a dismissed player whose name (or any part of it
// longer than two letters) appears in query.
func namedDismissal(s model.MatchState, query string) (model.DismissedPlayer, bool) {
	q := strings.ToLower(query)
	if q == "" {
		return model.DismissedPlayer{}, false
	}
	for i := len(s.DismissedPlayers) - 1; i >= 0; i-- {
		d := s.DismissedPlayers[i]
		for _, part := range strings.Fields(strings.ToLower(d.Name)) {
			if len(part) > 2 && strings.Contains(q, part) {
				return d, true
			}
		}
	}
	return model.DismissedPlayer{}, false
}

// how describes a dismissal: "c Fielder" for catches with a fielder,
// otherwise the mode.
func how(fielder *string, mode model.DismissalMode) string {
	if fielder != nil && *fielder != "" {
		return "c " + *fielder
	}
	return string(mode)
}

func percent(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
