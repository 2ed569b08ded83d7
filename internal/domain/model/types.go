// Package model contains the match-state data passed between layers.
package model

// EventType tags a scoring event. Values outside the known set are kept
// verbatim so newer producers do not break ingestion; Known reports them.
type EventType string

const (
	EventWicket   EventType = "wicket"
	EventRuns     EventType = "runs"
	EventMaiden   EventType = "maiden"
	EventBoundary EventType = "boundary"
	EventDot      EventType = "dot"
	EventWide     EventType = "wide"
	EventNoBall   EventType = "no_ball"
)

// Known reports whether t is one of the event types the engine understands.
func (t EventType) Known() bool {
	switch t {
	case EventWicket, EventRuns, EventMaiden, EventBoundary, EventDot, EventWide, EventNoBall:
		return true
	default:
		return false
	}
}

func (t EventType) String() string { return string(t) }

// DismissalMode tags how a batter got out.
type DismissalMode string

const (
	DismissalCaught    DismissalMode = "caught"
	DismissalBowled    DismissalMode = "bowled"
	DismissalLBW       DismissalMode = "lbw"
	DismissalStumped   DismissalMode = "stumped"
	DismissalRunOut    DismissalMode = "run_out"
	DismissalHitWicket DismissalMode = "hit_wicket"
	DismissalUnknown   DismissalMode = "unknown"
)

// Known reports whether m is a recognised dismissal mode (unknown excluded).
func (m DismissalMode) Known() bool {
	switch m {
	case DismissalCaught, DismissalBowled, DismissalLBW, DismissalStumped, DismissalRunOut, DismissalHitWicket:
		return true
	default:
		return false
	}
}

func (m DismissalMode) String() string { return string(m) }

// UnknownActor is recorded when a dismissal carries no bowler.
const UnknownActor = "unknown"
