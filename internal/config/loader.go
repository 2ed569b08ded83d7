package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "CRICKET_"
	envConfigPath = "CRICKET_CONFIG"
	envOpenAIKey  = "OPENAI_API_KEY"
)

type loadOptions struct {
	envFile    string
	configPath string
}

// LoadOption tunes Load.
type LoadOption func(*loadOptions)

// WithEnvFile sets the dotenv file read before the environment. A missing
// file is not an error. Defaults to ".env".
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// WithConfigPath sets the YAML file, overriding CRICKET_CONFIG.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.configPath = path }
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from WithConfigPath or CRICKET_CONFIG
//  3. env (prefix CRICKET_, "__" separates sections: CRICKET_LLM__MODEL)
//
// Values in the dotenv file never override variables already set.
// OPENAI_API_KEY fills llm.api_key when nothing else did.
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	o := loadOptions{envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: env file %s: %w", ErrLoadConfig, o.envFile, err)
		}
	}

	base := New()
	k := koanf.New(".")

	path := o.configPath
	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(envOpenAIKey)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CRICKET_POLL__INTERVAL to poll.interval. Single underscores
// stay, they are part of the koanf tags.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// Validate reports the first setting that cannot run.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.HistorySize <= 0:
		return fmt.Errorf("%w: history_size must be positive", ErrInvalidConfig)
	case c.TotalOvers <= 0:
		return fmt.Errorf("%w: total_overs must be positive", ErrInvalidConfig)
	case c.MomentumWindow <= 0:
		return fmt.Errorf("%w: momentum_window must be positive", ErrInvalidConfig)
	case c.Poll.Enabled && c.Poll.Interval <= 0:
		return fmt.Errorf("%w: poll.interval must be positive", ErrInvalidConfig)
	case c.LLM.MaxTokens < 0:
		return fmt.Errorf("%w: llm.max_tokens must not be negative", ErrInvalidConfig)
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("%w: cache.redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache.backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if err := c.Seed().Validate(); err != nil {
		return fmt.Errorf("%w: match: %w", ErrInvalidConfig, err)
	}
	return nil
}
