package service

import "errors"

// ErrPollingDisabled is returned by PollOnce when poll.enabled is false.
var ErrPollingDisabled = errors.New("polling disabled")
