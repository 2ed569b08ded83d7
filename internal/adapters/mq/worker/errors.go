package worker

import (
	"errors"
	"fmt"
)

// Stages at which a candidate can be rejected.
const (
	StageValidate   = "validate"
	StageTransition = "transition"
	StagePublish    = "publish"
)

// Sentinel kinds for ingestion errors.
var (
	ErrStopped  = errors.New("ingester stopped")
	ErrRejected = errors.New("candidate rejected")
)

// RejectedError wraps the cause of a dropped candidate with its stage.
type RejectedError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RejectedError) Unwrap() []error { return []error{ErrRejected, e.Err} }
