package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redquorum/redquorum/pkg/distributed/redlock"
)

// CoordinatorLocker adapts a [redlock.Coordinator] to the [Locker]
// seam, the way the teacher's XdlockAdapter adapted an xdlock.Factory
// to xcron.Locker. Construct one per Scheduler (or share across
// schedulers that want the same key namespace).
type CoordinatorLocker struct {
	coord     *redlock.Coordinator
	keyPrefix string
}

// CoordinatorLockerOption configures a CoordinatorLocker.
type CoordinatorLockerOption func(*CoordinatorLocker)

// WithRedlockKeyPrefix overrides the default "scheduler:" key prefix
// job names are namespaced under.
func WithRedlockKeyPrefix(prefix string) CoordinatorLockerOption {
	return func(l *CoordinatorLocker) { l.keyPrefix = prefix }
}

// ErrNilCoordinator is returned by NewCoordinatorLocker when given a
// nil *redlock.Coordinator.
var ErrNilCoordinator = errors.New("scheduler: redlock coordinator cannot be nil")

// NewCoordinatorLocker wraps coord as a Locker. The caller retains
// ownership of coord's lifecycle (Health/Close are not this type's
// concern).
func NewCoordinatorLocker(coord *redlock.Coordinator, opts ...CoordinatorLockerOption) (*CoordinatorLocker, error) {
	if coord == nil {
		return nil, ErrNilCoordinator
	}
	l := &CoordinatorLocker{coord: coord, keyPrefix: "scheduler:"}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// TryLock makes one Lock call on the wrapped Coordinator, so the
// Coordinator's own tries/retry-delay/jitter policy applies to it. A
// Coordinator built with redlock.WithTries(1) makes this a single,
// non-retrying attempt, so a job's "not my turn this tick" case
// resolves immediately instead of burning the cron tick retrying.
func (l *CoordinatorLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (LockHandle, error) {
	lock, err := l.coord.Lock(ctx, l.keyPrefix+key, ttl)
	if err != nil {
		if errors.Is(err, redlock.ErrLockUnavailable) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrLockAcquireFailed, err)
	}
	return &redlockHandle{coord: l.coord, handle: redlock.NewHandle(l.coord, lock), key: key}, nil
}

// Coordinator returns the underlying *redlock.Coordinator, for callers
// that need direct access (health checks, introspection).
func (l *CoordinatorLocker) Coordinator() *redlock.Coordinator {
	return l.coord
}

type redlockHandle struct {
	coord  *redlock.Coordinator
	handle *redlock.Handle
	key    string
}

func (h *redlockHandle) Unlock(ctx context.Context) error {
	if err := h.handle.Unlock(ctx); err != nil {
		return fmt.Errorf("scheduler: redlock unlock: %w", err)
	}
	return nil
}

// Renew extends the lock for a fresh ttl. ttl replaces, not adds to,
// the lock's previous TTL, matching redlock.Coordinator.Lock's own
// extend semantics.
func (h *redlockHandle) Renew(ctx context.Context, ttl time.Duration) error {
	if err := h.handle.Extend(ctx, ttl); err != nil {
		if errors.Is(err, redlock.ErrLockUnavailable) {
			return ErrLockNotHeld
		}
		return fmt.Errorf("scheduler: redlock renew: %w", err)
	}
	return nil
}

func (h *redlockHandle) Key() string { return h.key }

var (
	_ Locker     = (*CoordinatorLocker)(nil)
	_ LockHandle = (*redlockHandle)(nil)
)
