package scheduler

import (
	"context"
	"time"
)

// noopIndicator marks a Locker as a no-op. A sentinel interface is used
// instead of a concrete-type assertion so a third party's own no-op
// Locker is also recognized and exempted from the missing-name check
// in AddJob.
type noopIndicator interface {
	isNoop()
}

type noopLocker struct{}

func (*noopLocker) isNoop() {}

type noopLockHandle struct {
	key string
}

// NoopLocker returns a Locker that always "acquires" successfully and
// never coordinates with anything — the right choice for a
// single-replica deployment, and the Scheduler default.
func NoopLocker() Locker {
	return &noopLocker{}
}

func (l *noopLocker) TryLock(_ context.Context, key string, _ time.Duration) (LockHandle, error) {
	return &noopLockHandle{key: key}, nil
}

func (h *noopLockHandle) Unlock(_ context.Context) error             { return nil }
func (h *noopLockHandle) Renew(_ context.Context, _ time.Duration) error { return nil }
func (h *noopLockHandle) Key() string                                { return h.key }

var (
	_ Locker     = (*noopLocker)(nil)
	_ LockHandle = (*noopLockHandle)(nil)
)
