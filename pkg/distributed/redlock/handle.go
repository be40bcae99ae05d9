package redlock

import (
	"context"
	"time"
)

// Locking is the scoped-lock convenience form. It attempts to acquire
// resource, invokes fn with the resulting lock (nil on failure) and the
// acquisition error (nil on success), and guarantees unlock on every
// exit path — normal, panicking, or error-propagating — iff the
// acquisition succeeded. Its own return value is the boolean success of
// the acquisition, not fn's outcome; use MustLock when fn's return value
// matters to the caller.
func (c *Coordinator) Locking(ctx context.Context, resource string, ttl time.Duration, fn func(lock *Lock, err error), opts ...LockOption) bool {
	lock, err := c.Lock(ctx, resource, ttl, opts...)
	if err != nil {
		fn(nil, err)
		return false
	}
	defer func() { _ = c.Unlock(ctx, lock) }()
	fn(lock, nil)
	return true
}

// MustLock is the strict scoped form: a failed acquisition surfaces a
// *ResourceError wrapping ErrLockUnavailable instead of silently
// skipping fn, and fn's return value is propagated to the caller. unlock
// still runs on every exit path, including a panic inside fn.
func MustLock[T any](ctx context.Context, c *Coordinator, resource string, ttl time.Duration, fn func(lock *Lock) (T, error), opts ...LockOption) (T, error) {
	var zero T
	lock, err := c.Lock(ctx, resource, ttl, opts...)
	if err != nil {
		return zero, err
	}
	defer func() { _ = c.Unlock(ctx, lock) }()
	return fn(lock)
}

// Handle is an ergonomic, stateful wrapper around a Lock and the
// Coordinator that issued it, for callers who prefer method calls over
// threading the descriptor through every Coordinator call by hand.
type Handle struct {
	coord *Coordinator
	lock  *Lock
}

// NewHandle wraps an already-acquired lock.
func NewHandle(coord *Coordinator, lock *Lock) *Handle {
	return &Handle{coord: coord, lock: lock}
}

// Lock returns the underlying descriptor.
func (h *Handle) Lock() *Lock { return h.lock }

// Unlock releases the lock.
func (h *Handle) Unlock(ctx context.Context) error {
	return h.coord.Unlock(ctx, h.lock)
}

// Extend renews the lock for a new ttl, replacing the held descriptor
// with the returned one on success. The handle's prior descriptor is
// left untouched on failure so a caller can inspect or retry.
func (h *Handle) Extend(ctx context.Context, ttl time.Duration, opts ...LockOption) error {
	opts = append(opts, WithExtend(h.lock))
	lock, err := h.coord.Lock(ctx, h.lock.Resource, ttl, opts...)
	if err != nil {
		return err
	}
	h.lock = lock
	return nil
}

// Valid reports whether this handle's descriptor is still the
// quorum-authoritative holder of its resource.
func (h *Handle) Valid(ctx context.Context) (bool, error) {
	return h.coord.Valid(ctx, h.lock)
}

// TTL returns the handle's remaining validity per the introspection
// protocol.
func (h *Handle) TTL(ctx context.Context) (int64, bool, error) {
	return h.coord.TTLOf(ctx, h.lock)
}
