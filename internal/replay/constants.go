package replay

import "time"

// Defaults for Config.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 10 * time.Second
	DefaultWait    = 30 * time.Second
)

const (
	statePollInterval = 100 * time.Millisecond
	oversEpsilon      = 1e-6
)
