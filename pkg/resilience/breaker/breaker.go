package breaker

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Default configuration constants.
const (
	DefaultConsecutiveFailures uint32 = 5
	DefaultTimeout                    = 60 * time.Second
	DefaultMaxRequests         uint32 = 1
)

// TripPolicy decides when a Breaker moves from closed to open.
type TripPolicy interface {
	ReadyToTrip(counts Counts) bool
}

// Breaker wraps gobreaker with policy-based tripping and a friendlier API.
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	timeout       time.Duration
	maxRequests   uint32
	onStateChange func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[any]
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithTripPolicy overrides the default (5 consecutive failures) policy.
func WithTripPolicy(p TripPolicy) Option {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithTimeout sets the open -> half-open recovery timeout. Default 60s.
func WithTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithMaxRequests sets how many probe requests are allowed through while
// half-open. Default 1.
func WithMaxRequests(n uint32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithOnStateChange registers a state-transition callback. It runs on its
// own goroutine (gobreaker holds an internal mutex across the callback,
// so a synchronous call back into State()/Counts()/Do() on the same
// breaker would deadlock) and panics inside it are recovered and logged.
func WithOnStateChange(f func(name string, from, to State)) Option {
	return func(b *Breaker) {
		if f != nil {
			b.onStateChange = f
		}
	}
}

// New creates a breaker. Defaults: trip after 5 consecutive failures,
// 60s open timeout, 1 half-open probe.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:        name,
		tripPolicy:  NewConsecutiveFailures(DefaultConsecutiveFailures),
		timeout:     DefaultTimeout,
		maxRequests: DefaultMaxRequests,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.cb = gobreaker.NewCircuitBreaker[any](b.settings())
	return b
}

func (b *Breaker) settings() gobreaker.Settings {
	st := gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return b.tripPolicy.ReadyToTrip(counts)
		},
	}
	if b.onStateChange != nil {
		cb := b.onStateChange
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						slog.Error("breaker: OnStateChange callback panicked",
							"name", name, "from", from.String(), "to", to.String(), "panic", r)
					}
				}()
				cb(name, from, to)
			}()
		}
	}
	return st
}

// Do runs fn under the breaker. Returns immediately, without calling fn,
// if ctx is already done, the breaker is open, or (half-open) too many
// probes are already in flight.
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (any, error) { return nil, fn() })
	return wrapBreakerError(err, b.name)
}

// State returns the breaker's current state.
func (b *Breaker) State() State { return b.cb.State() }

// Name returns the breaker's name.
func (b *Breaker) Name() string { return b.name }

// Counts returns the current statistics window.
func (b *Breaker) Counts() Counts { return b.cb.Counts() }
