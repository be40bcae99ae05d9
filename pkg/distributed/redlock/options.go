package redlock

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

func validateResource(resource string) error {
	if strings.TrimSpace(resource) == "" {
		return ErrEmptyResource
	}
	return nil
}

// =============================================================================
// Coordinator options
// =============================================================================

// CoordinatorOption configures a Coordinator at construction time.
type CoordinatorOption func(*coordinatorOptions)

type coordinatorOptions struct {
	KeyPrefix      string
	Tries          int
	RetryDelay     time.Duration
	RetryDelayFunc func(tries int) time.Duration
	RetryJitter    time.Duration
	DriftFactor    float64
	GenValueFunc   func() (string, error)
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func defaultCoordinatorOptions() *coordinatorOptions {
	return &coordinatorOptions{
		KeyPrefix:   "lock:",
		Tries:       4, // retryCount(3) + 1 initial attempt
		RetryDelay:  200 * time.Millisecond,
		RetryJitter: 50 * time.Millisecond,
		DriftFactor: 0.01,
	}
}

// WithKeyPrefix sets the prefix prepended to every resource name before it
// is used as a Redis key. Default "lock:".
func WithKeyPrefix(prefix string) CoordinatorOption {
	return func(o *coordinatorOptions) { o.KeyPrefix = prefix }
}

// WithTries sets how many acquisition attempts Lock makes across the full
// instance set before giving up. Default 4 (3 retries plus the initial
// attempt). A value of 1 disables retry.
func WithTries(n int) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if n > 0 {
			o.Tries = n
		}
	}
}

// WithRetryDelay sets the base delay between acquisition attempts.
// Default 200ms. Superseded by WithRetryDelayFunc if both are given.
func WithRetryDelay(d time.Duration) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if d > 0 {
			o.RetryDelay = d
		}
	}
}

// WithRetryDelayFunc overrides the delay computation entirely; tries is
// 1-indexed. When set, WithRetryDelay is ignored; the WithRetryJitter
// jitter is still added to the delay fn returns.
func WithRetryDelayFunc(fn func(tries int) time.Duration) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if fn != nil {
			o.RetryDelayFunc = fn
		}
	}
}

// WithRetryJitter sets the upper bound of the random jitter added to each
// retry delay, spreading out competing clients that failed the same
// attempt round at the same instant. Default 50ms. Zero disables jitter.
func WithRetryJitter(d time.Duration) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if d >= 0 {
			o.RetryJitter = d
		}
	}
}

// WithDriftFactor sets the clock-drift compensation factor used in
// drift(ttl) = floor(ttl*factor)+2. Default 0.01. Must be > 0: 0 would
// defeat the compensation the safety argument depends on.
func WithDriftFactor(f float64) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if f > 0 {
			o.DriftFactor = f
		}
	}
}

// WithValueFunc overrides how lock tokens are minted. Default is a
// UUIDv4 per acquisition. A replacement must produce globally unique
// values: two concurrent holders minting the same token defeats mutual
// exclusion.
func WithValueFunc(fn func() (string, error)) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if fn != nil {
			o.GenValueFunc = fn
		}
	}
}

// WithTracerProvider supplies an explicit OTel TracerProvider for the
// coordinator's span instrumentation. Defaults to otel.GetTracerProvider().
func WithTracerProvider(tp trace.TracerProvider) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if tp != nil {
			o.TracerProvider = tp
		}
	}
}

// WithMeterProvider supplies an explicit OTel MeterProvider for the
// coordinator's metric instrumentation. Defaults to otel.GetMeterProvider().
func WithMeterProvider(mp metric.MeterProvider) CoordinatorOption {
	return func(o *coordinatorOptions) {
		if mp != nil {
			o.MeterProvider = mp
		}
	}
}

// =============================================================================
// Lock-call options
// =============================================================================

// LockOption configures a single Lock/Extend call.
type LockOption func(*lockOptions)

type lockOptions struct {
	extend             *Lock
	extendOnlyIfLocked bool
}

// WithExtend turns a Lock call into a conditional renewal: instances that
// already hold lock.Value for this resource extend in place instead of
// requiring the key to be absent. Instances that don't recognize the
// token are treated as a plain non-acquisition for quorum-counting
// purposes, exactly as an absent-key fresh acquisition would be.
func WithExtend(lock *Lock) LockOption {
	return func(o *lockOptions) { o.extend = lock }
}

// WithExtendOnlyIfLocked forbids WithExtend from re-creating the key if
// the lock has already lapsed everywhere: the extend only succeeds if
// quorum servers still hold the token. Default false (a lapsed lock is
// re-created under the same token).
func WithExtendOnlyIfLocked(b bool) LockOption {
	return func(o *lockOptions) { o.extendOnlyIfLocked = b }
}

// WithExtendOnlyIfLife is a deprecated alias of WithExtendOnlyIfLocked.
// It emits a one-time process-wide deprecation notice (suppressible via
// SuppressDeprecationWarnings) and folds into the canonical field.
func WithExtendOnlyIfLife(b bool) LockOption {
	warnDeprecated("WithExtendOnlyIfLife", "WithExtendOnlyIfLocked")
	return WithExtendOnlyIfLocked(b)
}

// WithExtendLife is a deprecated alias of WithExtendOnlyIfLocked.
func WithExtendLife(b bool) LockOption {
	warnDeprecated("WithExtendLife", "WithExtendOnlyIfLocked")
	return WithExtendOnlyIfLocked(b)
}
