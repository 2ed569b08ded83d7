package config

import "errors"

// Sentinel error kinds. Load wraps every failure with one of them.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
