// Package transition derives the next match state from a prior state and
// a validated event.
package transition

import (
	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/internal/domain/probability"
)

// Engine applies events to states. It is stateless and safe for
// concurrent use.
type Engine struct {
	model *probability.Model
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithModel sets the probability model used for p_draw updates.
func WithModel(m *probability.Model) Option {
	return func(e *Engine) {
		if m != nil {
			e.model = m
		}
	}
}

// NewEngine creates an engine backed by the default probability model.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{model: probability.Default}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the probability model in use.
func (e *Engine) Model() *probability.Model { return e.model }

// Apply returns the state after ev. On error prior is the state to keep;
// nothing observable has changed.
func (e *Engine) Apply(prior model.MatchState, ev model.Event) (model.MatchState, error) {
	if err := check(prior, ev); err != nil {
		return model.MatchState{}, err
	}

	pDraw := e.model.UpdateDraw(prior.PDraw, ev, prior)

	dismissed := make([]model.DismissedPlayer, len(prior.DismissedPlayers), len(prior.DismissedPlayers)+1)
	copy(dismissed, prior.DismissedPlayers)
	if ev.Type == model.EventWicket && ev.BatterName() != "" {
		dismissed = append(dismissed, dismissal(prior, ev))
	}

	recent := make([]model.Event, len(prior.RecentEvents), len(prior.RecentEvents)+1)
	copy(recent, prior.RecentEvents)
	recent = append(recent, ev)

	return model.MatchState{
		MatchID:          prior.MatchID,
		TeamBatting:      prior.TeamBatting,
		TeamFielding:     prior.TeamFielding,
		TotalRuns:        ev.CurrentScore,
		WicketsLost:      ev.CurrentWickets,
		OversPlayed:      ev.OversPlayed,
		Target:           prior.Target,
		CurrentBatter:    prior.CurrentBatter,
		DismissedPlayers: dismissed,
		RecentEvents:     recent,
		PDraw:            pDraw,
		PFieldingWin:     1 - pDraw,
		LastUpdated:      ev.Timestamp,
	}, nil
}

func check(prior model.MatchState, ev model.Event) error {
	switch {
	case ev.RunsScored < 0:
		return &InvalidTransitionError{Reason: ReasonNegativeRuns}
	case ev.OversPlayed < prior.OversPlayed:
		return &InvalidTransitionError{Reason: ReasonOversRegressed}
	case ev.Type == model.EventWicket && prior.WicketsLost+1 > model.MaxWickets:
		return &InvalidTransitionError{Reason: ReasonWicketsExceedTen}
	case ev.CurrentWickets < 0 || ev.CurrentWickets > model.MaxWickets:
		return &InvalidTransitionError{Reason: ReasonWicketsOutOfRange}
	}
	return nil
}

// dismissal builds the record for a wicket event. Runs come from the tracked
// batter when the names match; otherwise they are summed from earlier runs
// events credited to the same name. The sum spans the whole event history,
// so a name reused across innings would be over-counted.
func dismissal(prior model.MatchState, ev model.Event) model.DismissedPlayer {
	name := ev.BatterName()

	runs := 0
	if prior.CurrentBatter.Name == name {
		runs = prior.CurrentBatter.Runs
	} else {
		for i := len(prior.RecentEvents) - 1; i >= 0; i-- {
			p := prior.RecentEvents[i]
			if p.Type == model.EventRuns && p.BatterName() == name {
				runs += p.RunsScored
			}
		}
	}

	bowler := ev.BowlerName()
	if bowler == "" {
		bowler = model.UnknownActor
	}

	var fielder *string
	if ev.Fielder != nil {
		fielder = model.Ptr(*ev.Fielder)
	}

	return model.DismissedPlayer{
		Name:             name,
		Runs:             runs,
		BallsFaced:       0,
		DismissalMode:    ev.Mode(),
		Bowler:           bowler,
		Fielder:          fielder,
		DismissedAtScore: ev.CurrentScore,
		DismissedAtOvers: ev.OversPlayed,
	}
}

var defaultEngine = NewEngine()

// Apply runs the default engine.
func Apply(prior model.MatchState, ev model.Event) (model.MatchState, error) {
	return defaultEngine.Apply(prior, ev)
}
