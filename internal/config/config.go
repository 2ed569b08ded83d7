// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and the environment on top of the defaults.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"time"

	"github.com/okian/innings/internal/adapters/provider"
	"github.com/okian/innings/internal/domain/model"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the candidate event queue.
	EventQueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many producer event ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// HistorySize sets how many published versions GET /state?version can reach.
	HistorySize int `koanf:"history_size"`

	// TotalOvers is the length of the day used for overs-remaining figures
	// and the draw model.
	TotalOvers float64 `koanf:"total_overs"`

	// MomentumWindow is how many recent events the momentum answer reads.
	MomentumWindow int `koanf:"momentum_window"`

	Match Match `koanf:"match"`
	Poll  Poll  `koanf:"poll"`
	LLM   LLM   `koanf:"llm"`
	Cache Cache `koanf:"cache"`
}

// Match seeds the initial match state.
type Match struct {
	ID           string      `koanf:"id"`
	TeamBatting  string      `koanf:"team_batting"`
	TeamFielding string      `koanf:"team_fielding"`
	TotalRuns    int         `koanf:"total_runs"`
	WicketsLost  int         `koanf:"wickets_lost"`
	OversPlayed  float64     `koanf:"overs_played"`
	Target       int         `koanf:"target"`
	PDraw        float64     `koanf:"p_draw"`
	Batter       Batter      `koanf:"batter"`
	Dismissed    []Dismissal `koanf:"dismissed"`
}

// Batter is the batter on strike at the seed position.
type Batter struct {
	Name       string `koanf:"name"`
	Runs       int    `koanf:"runs"`
	BallsFaced int    `koanf:"balls_faced"`
}

// Dismissal is a player already out at the seed position.
type Dismissal struct {
	Name             string  `koanf:"name"`
	Runs             int     `koanf:"runs"`
	BallsFaced       int     `koanf:"balls_faced"`
	DismissalMode    string  `koanf:"dismissal_mode"`
	Bowler           string  `koanf:"bowler"`
	Fielder          string  `koanf:"fielder"`
	DismissedAtScore int     `koanf:"dismissed_at_score"`
	DismissedAtOvers float64 `koanf:"dismissed_at_overs"`
}

// Poll configures the score feed poller.
type Poll struct {
	Enabled      bool          `koanf:"enabled"`
	Interval     time.Duration `koanf:"interval"`
	BaseURL      string        `koanf:"base_url"`
	HistoryURL   string        `koanf:"history_url"`
	Timeout      time.Duration `koanf:"timeout"`
	FetchHistory bool          `koanf:"fetch_history"`
}

// LLM configures the answer generator.
type LLM struct {
	Enabled     bool          `koanf:"enabled"`
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	MaxTokens   int           `koanf:"max_tokens"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
}

// Cache configures the generated answer cache.
type Cache struct {
	Backend       string        `koanf:"backend"`
	TTL           time.Duration `koanf:"ttl"`
	MaxEntries    int           `koanf:"max_entries"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisPrefix   string        `koanf:"redis_prefix"`
}

// New creates a Config with defaults. The match defaults are the day-five
// position the tracker was first built for.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		EventQueueSize: 1024,
		DedupeSize:     10_000,
		HistorySize:    64,
		TotalOvers:     90,
		MomentumWindow: 10,
		Match: Match{
			ID:           "117380",
			TeamBatting:  "India",
			TeamFielding: "South Africa",
			TotalRuns:    27,
			WicketsLost:  2,
			OversPlayed:  6.0,
			Target:       549,
			PDraw:        0.35,
			Batter:       Batter{Name: "Sai Sudharsan", Runs: 2, BallsFaced: 4},
		},
		Poll: Poll{
			Enabled:      false,
			Interval:     30 * time.Second,
			BaseURL:      provider.DefaultBaseURL,
			HistoryURL:   provider.DefaultHistoryURL,
			Timeout:      5 * time.Second,
			FetchHistory: true,
		},
		LLM: LLM{
			Enabled:     true,
			Model:       "gpt-4o-mini",
			MaxTokens:   150,
			Temperature: 0.3,
			Timeout:     10 * time.Second,
		},
		Cache: Cache{
			Backend:     CacheMemory,
			TTL:         10 * time.Minute,
			MaxEntries:  1000,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "innings:",
		},
	}
}

// Seed converts the match section into the initial state seed.
func (c *Config) Seed() model.Seed {
	m := c.Match
	dismissed := make([]model.DismissedPlayer, 0, len(m.Dismissed))
	for _, d := range m.Dismissed {
		p := model.DismissedPlayer{
			Name:             d.Name,
			Runs:             d.Runs,
			BallsFaced:       d.BallsFaced,
			DismissalMode:    model.DismissalMode(d.DismissalMode),
			Bowler:           d.Bowler,
			DismissedAtScore: d.DismissedAtScore,
			DismissedAtOvers: d.DismissedAtOvers,
		}
		if p.DismissalMode == "" {
			p.DismissalMode = model.DismissalUnknown
		}
		if p.Bowler == "" {
			p.Bowler = model.UnknownActor
		}
		if d.Fielder != "" {
			p.Fielder = model.Ptr(d.Fielder)
		}
		dismissed = append(dismissed, p)
	}
	return model.Seed{
		MatchID:      m.ID,
		TeamBatting:  m.TeamBatting,
		TeamFielding: m.TeamFielding,
		TotalRuns:    m.TotalRuns,
		WicketsLost:  m.WicketsLost,
		OversPlayed:  m.OversPlayed,
		Target:       m.Target,
		Batter:       model.Batter{Name: m.Batter.Name, Runs: m.Batter.Runs, BallsFaced: m.Batter.BallsFaced, OnStrike: true},
		Dismissed:    dismissed,
		PDraw:        m.PDraw,
	}
}

// Teams returns the configured team names, batting side first.
func (c *Config) Teams() []string {
	return []string{c.Match.TeamBatting, c.Match.TeamFielding}
}
