package model

import (
	"math"
	"time"
)

// Batter is the batter currently tracked at the crease.
type Batter struct {
	Name       string `json:"name"`
	Runs       int    `json:"runs"`
	BallsFaced int    `json:"balls_faced"`
	OnStrike   bool   `json:"on_strike"`
}

// Event is one validated scoring event. Optional fields are nil when the
// producer did not supply them. CurrentScore and CurrentWickets are the
// authoritative totals after the event.
type Event struct {
	ID             string         `json:"event_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Type           EventType      `json:"event_type"`
	RunsScored     int            `json:"runs_scored"`
	Batter         *string        `json:"batter,omitempty"`
	Bowler         *string        `json:"bowler,omitempty"`
	OversPlayed    float64        `json:"overs_played"`
	DismissalMode  *DismissalMode `json:"dismissal_mode,omitempty"`
	Fielder        *string        `json:"fielder,omitempty"`
	CurrentScore   int            `json:"current_score"`
	CurrentWickets int            `json:"current_wickets"`
	BallsInOver    int            `json:"balls_in_over"`
	Commentary     *string        `json:"commentary,omitempty"`
}

// BatterName returns the batter or "" when absent.
func (e Event) BatterName() string { return deref(e.Batter) }

// BowlerName returns the bowler or "" when absent.
func (e Event) BowlerName() string { return deref(e.Bowler) }

// FielderName returns the fielder or "" when absent.
func (e Event) FielderName() string { return deref(e.Fielder) }

// CommentaryText returns the commentary or "" when absent.
func (e Event) CommentaryText() string { return deref(e.Commentary) }

// Mode returns the dismissal mode, DismissalUnknown when absent.
func (e Event) Mode() DismissalMode {
	if e.DismissalMode == nil || *e.DismissalMode == "" {
		return DismissalUnknown
	}
	return *e.DismissalMode
}

// DismissedPlayer records a batter's innings at the moment of dismissal.
type DismissedPlayer struct {
	Name             string        `json:"name"`
	Runs             int           `json:"runs"`
	BallsFaced       int           `json:"balls_faced"`
	DismissalMode    DismissalMode `json:"dismissal_mode"`
	Bowler           string        `json:"bowler"`
	Fielder          *string       `json:"fielder,omitempty"`
	DismissedAtScore int           `json:"dismissed_at_score"`
	DismissedAtOvers float64       `json:"dismissed_at_overs"`
}

// FielderName returns the fielder or "" when absent.
func (d DismissedPlayer) FielderName() string { return deref(d.Fielder) }

// Ptr returns a pointer to v. Handy for optional event fields.
func Ptr[T any](v T) *T { return &v }

// BallOfOver returns the ball digit of an overs value in cricket notation,
// e.g. 6.3 -> 3.
func BallOfOver(overs float64) int {
	whole := math.Floor(overs)
	return int(math.Round((overs - whole) * 10))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
