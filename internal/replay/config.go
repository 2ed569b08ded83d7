package replay

import "time"

// Config holds configuration for a replay run.
type Config struct {
	BaseURL string        // Base URL of the service
	Timeout time.Duration // HTTP request timeout
	Wait    time.Duration // How long to wait for the last event to be published
	Pace    time.Duration // Pause between submissions, zero for none
	Verbose bool          // Log every submission
}

// Ack represents the response from event submission.
type Ack struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	EventID   string `json:"event_id"`
}

// Stats holds replay statistics.
type Stats struct {
	EventsSubmitted int           `json:"events_submitted"`
	EventsAccepted  int           `json:"events_accepted"`
	EventsDuplicate int           `json:"events_duplicate"`
	EventsFailed    int           `json:"events_failed"`
	FinalVersion    uint64        `json:"final_version"`
	Verified        bool          `json:"verified"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        time.Duration `json:"duration"`
}
