package supervisor

import (
	"log/slog"
	"os"
)

// Option configures a Group.
type Option func(*groupOptions)

type groupOptions struct {
	logger          *slog.Logger
	name            string
	signals         []os.Signal
	noSignalHandler bool
}

func defaultOptions() *groupOptions {
	return &groupOptions{logger: slog.Default(), name: "supervisor"}
}

// WithLogger sets the logger used for lifecycle events. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *groupOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels the group in its log output. Defaults to
// "supervisor".
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals overrides the signals Run listens for. Defaults to
// DefaultSignals().
func WithSignals(signals []os.Signal) Option {
	copied := append([]os.Signal(nil), signals...)
	return func(o *groupOptions) { o.signals = copied }
}

// WithoutSignalHandler disables Run's built-in signal listener, for
// callers that manage their own signal handling.
func WithoutSignalHandler() Option {
	return func(o *groupOptions) { o.noSignalHandler = true }
}
