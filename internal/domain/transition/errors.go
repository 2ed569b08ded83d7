package transition

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition matches every rejected transition.
var ErrInvalidTransition = errors.New("invalid transition")

// Rejection reasons.
const (
	ReasonNegativeRuns      = "negative runs"
	ReasonOversRegressed    = "overs regressed"
	ReasonWicketsExceedTen  = "wickets exceed ten"
	ReasonWicketsOutOfRange = "wickets out of range"
)

// InvalidTransitionError reports why an event cannot follow the prior state.
type InvalidTransitionError struct {
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s", e.Reason)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
