package worker

import (
	"github.com/okian/innings/internal/domain/transition"
	"github.com/okian/innings/pkg/logger"
)

// Option applies a configuration option to the Ingester.
type Option func(*Ingester)

// WithName sets the ingester name used in logs.
func WithName(name string) Option {
	return func(in *Ingester) {
		if name != "" {
			in.name = name
		}
	}
}

// WithLogger sets a custom logger for the ingester.
func WithLogger(l logger.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithEngine sets the transition engine. The default uses the standard
// probability model.
func WithEngine(e *transition.Engine) Option {
	return func(in *Ingester) {
		if e != nil {
			in.engine = e
		}
	}
}

// WithPublishHook registers fn to run after every successful publish.
func WithPublishHook(fn PublishFunc) Option {
	return func(in *Ingester) {
		if fn != nil {
			in.hooks = append(in.hooks, fn)
		}
	}
}
