package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// MaxWickets is the number of wickets that ends an innings.
const MaxWickets = 10

// ErrInvalidSeed is returned when a seed cannot produce a valid state.
var ErrInvalidSeed = errors.New("invalid seed state")

// MatchState is one immutable version of the innings. A new value is built
// for every accepted event; published values are never modified, so readers
// may keep them as long as they like. Use Clone before changing a copy.
type MatchState struct {
	MatchID          string            `json:"match_id"`
	TeamBatting      string            `json:"team_batting"`
	TeamFielding     string            `json:"team_fielding"`
	TotalRuns        int               `json:"total_runs"`
	WicketsLost      int               `json:"wickets_lost"`
	OversPlayed      float64           `json:"overs_played"`
	Target           int               `json:"target"`
	CurrentBatter    Batter            `json:"current_batter"`
	DismissedPlayers []DismissedPlayer `json:"dismissed_players"`
	RecentEvents     []Event           `json:"recent_events"`
	PDraw            float64           `json:"p_draw"`
	PFieldingWin     float64           `json:"p_fielding_win"`
	LastUpdated      time.Time         `json:"last_updated"`
}

type matchStateFields MatchState

// MarshalJSON writes the state with p_sa_win as an alias of
// p_fielding_win for clients that read the older field name.
func (s MatchState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		matchStateFields
		PSAWin float64 `json:"p_sa_win"`
	}{matchStateFields(s), s.PFieldingWin})
}

// Clone returns a deep copy whose sequences share nothing with s.
func (s MatchState) Clone() MatchState {
	c := s
	c.DismissedPlayers = slices.Clone(s.DismissedPlayers)
	c.RecentEvents = slices.Clone(s.RecentEvents)
	if c.DismissedPlayers == nil {
		c.DismissedPlayers = []DismissedPlayer{}
	}
	if c.RecentEvents == nil {
		c.RecentEvents = []Event{}
	}
	return c
}

// WicketsRemaining returns wickets in hand.
func (s MatchState) WicketsRemaining() int { return MaxWickets - s.WicketsLost }

// RunsNeeded returns runs still required to reach the target.
func (s MatchState) RunsNeeded() int { return s.Target - s.TotalRuns }

// OversRemaining returns overs left out of total, never negative.
func (s MatchState) OversRemaining(total float64) float64 {
	return max(0, total-s.OversPlayed)
}

// LastEvents returns a copy of the newest n recent events, oldest first.
func (s MatchState) LastEvents(n int) []Event {
	if n <= 0 {
		return nil
	}
	start := max(0, len(s.RecentEvents)-n)
	return slices.Clone(s.RecentEvents[start:])
}

// LastDismissal returns the most recent dismissal, if any.
func (s MatchState) LastDismissal() (DismissedPlayer, bool) {
	if len(s.DismissedPlayers) == 0 {
		return DismissedPlayer{}, false
	}
	return s.DismissedPlayers[len(s.DismissedPlayers)-1], true
}

// Seed describes the starting position of the tracked innings.
type Seed struct {
	MatchID      string
	TeamBatting  string
	TeamFielding string
	TotalRuns    int
	WicketsLost  int
	OversPlayed  float64
	Target       int
	Batter       Batter
	Dismissed    []DismissedPlayer
	PDraw        float64
	Now          time.Time
}

// Validate checks the seed against the state invariants.
func (s Seed) Validate() error {
	switch {
	case s.WicketsLost < 0 || s.WicketsLost > MaxWickets:
		return fmt.Errorf("%w: wickets_lost %d outside [0,%d]", ErrInvalidSeed, s.WicketsLost, MaxWickets)
	case s.OversPlayed < 0:
		return fmt.Errorf("%w: negative overs_played %v", ErrInvalidSeed, s.OversPlayed)
	case s.PDraw < 0 || s.PDraw > 1:
		return fmt.Errorf("%w: p_draw %v outside [0,1]", ErrInvalidSeed, s.PDraw)
	case s.TotalRuns < 0:
		return fmt.Errorf("%w: negative total_runs %d", ErrInvalidSeed, s.TotalRuns)
	}
	return nil
}

// NewMatchState builds the initial state from a seed.
func NewMatchState(seed Seed) (MatchState, error) {
	if err := seed.Validate(); err != nil {
		return MatchState{}, err
	}
	now := seed.Now
	if now.IsZero() {
		now = time.Now()
	}
	dismissed := slices.Clone(seed.Dismissed)
	if dismissed == nil {
		dismissed = []DismissedPlayer{}
	}
	return MatchState{
		MatchID:          seed.MatchID,
		TeamBatting:      seed.TeamBatting,
		TeamFielding:     seed.TeamFielding,
		TotalRuns:        seed.TotalRuns,
		WicketsLost:      seed.WicketsLost,
		OversPlayed:      seed.OversPlayed,
		Target:           seed.Target,
		CurrentBatter:    seed.Batter,
		DismissedPlayers: dismissed,
		RecentEvents:     []Event{},
		PDraw:            seed.PDraw,
		PFieldingWin:     1 - seed.PDraw,
		LastUpdated:      now,
	}, nil
}

// WithDismissals returns a copy of s whose dismissal list is replaced by ds.
// Used to merge historical scorecard data before live ingestion starts.
func (s MatchState) WithDismissals(ds []DismissedPlayer) MatchState {
	c := s.Clone()
	c.DismissedPlayers = slices.Clone(ds)
	if c.DismissedPlayers == nil {
		c.DismissedPlayers = []DismissedPlayer{}
	}
	return c
}
