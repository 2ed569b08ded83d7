package replay

import "errors"

var (
	// ErrNoEvents is returned when the input holds no events.
	ErrNoEvents = errors.New("replay: no events")
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("replay: service unhealthy")
	// ErrMismatch is returned when the published state does not match the last event.
	ErrMismatch = errors.New("replay: final state mismatch")
	// ErrTimeout is returned when the expected version is not published in time.
	ErrTimeout = errors.New("replay: timed out waiting for state")
)
