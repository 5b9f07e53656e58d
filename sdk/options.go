package sdk

import (
	"fmt"
	"log/slog"

	"github.com/tombee/tracekit/internal/config"
	"github.com/tombee/tracekit/pkg/metric"
	"github.com/tombee/tracekit/pkg/tracker"
)

// Option is a functional option for SDK construction.
type Option func(*SDK) error

// WithConfigPath loads configuration from the given YAML file. Environment
// variables still take precedence over file values.
func WithConfigPath(path string) Option {
	return func(s *SDK) error {
		if path == "" {
			return fmt.Errorf("config path cannot be empty")
		}
		s.configPath = path
		return nil
	}
}

// WithConfig supplies a fully constructed configuration, bypassing file and
// environment loading.
func WithConfig(cfg *config.Config) Option {
	return func(s *SDK) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		s.cfg = cfg
		return nil
	}
}

// WithLogger sets the structured logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SDK) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithSampler sets the sampler notified on scope push and pop when tracing
// is enabled.
func WithSampler(sampler tracker.Sampler) Option {
	return func(s *SDK) error {
		if sampler == nil {
			return fmt.Errorf("sampler cannot be nil")
		}
		s.sampler = sampler
		return nil
	}
}

// WithListener registers a transaction-start listener.
func WithListener(l tracker.Listener) Option {
	return func(s *SDK) error {
		if l == nil {
			return fmt.Errorf("listener cannot be nil")
		}
		s.listeners = append(s.listeners, l)
		return nil
	}
}

// WithObserver sets the self-telemetry observer, typically an
// observability.Collector.
func WithObserver(o tracker.Observer) Option {
	return func(s *SDK) error {
		if o == nil {
			return fmt.Errorf("observer cannot be nil")
		}
		s.observer = o
		return nil
	}
}

// WithStore sets the engine-wide statistics store. Useful when several
// agents in one process should merge into one harvest cycle.
func WithStore(store *metric.Store) Option {
	return func(s *SDK) error {
		if store == nil {
			return fmt.Errorf("store cannot be nil")
		}
		s.store = store
		return nil
	}
}
