// Package probability updates the draw probability after a scoring event.
package probability

import (
	"math"

	"github.com/okian/innings/internal/domain/model"
)

// Default model parameters.
const (
	defaultTotalOvers        = 90.0
	defaultTimeWeight        = 0.2
	defaultEarlyWicketFactor = 0.85
	defaultLateWicketFactor  = 0.70
	defaultCollapseWickets   = 5
	defaultBoundaryBoost     = 1.05
	defaultBoundaryRuns      = 4
	defaultFloor             = 0.05
	defaultCeiling           = 0.95
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithTotalOvers sets the overs available in the day used by the time factor.
func WithTotalOvers(overs float64) Option {
	return func(m *Model) {
		if overs > 0 {
			m.totalOvers = overs
		}
	}
}

// WithWicketFactors sets the multipliers applied on a wicket before and after
// the collapse threshold is reached.
func WithWicketFactors(early, late float64, collapseAt int) Option {
	return func(m *Model) {
		if early > 0 && late > 0 && collapseAt > 0 {
			m.earlyWicket = early
			m.lateWicket = late
			m.collapseWickets = collapseAt
		}
	}
}

// WithBounds sets the clamp range. Ignored unless 0 <= floor < ceiling <= 1.
func WithBounds(floor, ceiling float64) Option {
	return func(m *Model) {
		if floor >= 0 && ceiling <= 1 && floor < ceiling {
			m.floor = floor
			m.ceiling = ceiling
		}
	}
}

// Model is a deterministic heuristic for the probability of a draw.
// It holds no state between calls.
type Model struct {
	totalOvers      float64
	timeWeight      float64
	earlyWicket     float64
	lateWicket      float64
	collapseWickets int
	boundaryBoost   float64
	boundaryRuns    int
	floor           float64
	ceiling         float64
}

// Default is the model with the standard day-five parameters.
var Default = New()

// New creates a model with the standard parameters adjusted by opts.
func New(opts ...Option) *Model {
	m := &Model{
		totalOvers:      defaultTotalOvers,
		timeWeight:      defaultTimeWeight,
		earlyWicket:     defaultEarlyWicketFactor,
		lateWicket:      defaultLateWicketFactor,
		collapseWickets: defaultCollapseWickets,
		boundaryBoost:   defaultBoundaryBoost,
		boundaryRuns:    defaultBoundaryRuns,
		floor:           defaultFloor,
		ceiling:         defaultCeiling,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TotalOvers returns the overs in the day the model assumes.
func (m *Model) TotalOvers() float64 { return m.totalOvers }

// UpdateDraw returns the draw probability after ev, starting from oldP.
// prior must be the state before ev is applied. The result is always
// within the model bounds.
func (m *Model) UpdateDraw(oldP float64, ev model.Event, prior model.MatchState) float64 {
	p := oldP

	// Time factor never exceeds 1: it only matters past the nominal day length.
	remaining := (m.totalOvers - prior.OversPlayed) / m.totalOvers
	p *= math.Min(1.0, 1+remaining*m.timeWeight)

	switch ev.Type {
	case model.EventWicket:
		if prior.WicketsLost < m.collapseWickets {
			p *= m.earlyWicket
		} else {
			p *= m.lateWicket
		}
	case model.EventRuns:
		if ev.RunsScored >= m.boundaryRuns {
			p *= m.boundaryBoost
		}
	}

	return m.clamp(p)
}

func (m *Model) clamp(p float64) float64 {
	if math.IsNaN(p) {
		return m.floor
	}
	return math.Max(m.floor, math.Min(m.ceiling, p))
}

// UpdateDraw applies the default model.
func UpdateDraw(oldP float64, ev model.Event, prior model.MatchState) float64 {
	return Default.UpdateDraw(oldP, ev, prior)
}
