package provider

import "errors"

// Sentinel kinds for provider errors.
var (
	ErrNoMatch          = errors.New("no live match for configured teams")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrEmptyScore       = errors.New("empty score response")
	ErrNoScorecard      = errors.New("no scorecard in response")
)
