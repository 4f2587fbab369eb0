package sequence

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ib-77/tempo/pkg/tempo/core"
)

// Config holds the settings shared by a sequence and every sequence derived
// from it by appending steps.
type Config struct {
	// Logger receives step and run events.
	// Default: zerolog.Nop().
	Logger zerolog.Logger

	// TracerProvider creates the run and step spans.
	// Default: the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// Hooks are notified of step and run lifecycle events.
	Hooks Hooks

	// Clock times step delays.
	// Default: core.RealClock().
	Clock core.Clock
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Logger:         zerolog.Nop(),
		TracerProvider: otel.GetTracerProvider(),
		Clock:          core.RealClock(),
	}
}

// Option configures a sequence created by New or FromSteps.
type Option func(*Config)

func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *Config) {
		if tp != nil {
			cfg.TracerProvider = tp
		}
	}
}

// WithHooks registers lifecycle hooks; repeated calls run in registration order.
func WithHooks(h Hooks) Option {
	return func(cfg *Config) {
		cfg.Hooks = cfg.Hooks.Merge(h)
	}
}

func WithClock(clock core.Clock) Option {
	return func(cfg *Config) {
		if clock != nil {
			cfg.Clock = clock
		}
	}
}

func newConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &cfg
}
