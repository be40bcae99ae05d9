package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redquorum/redquorum/pkg/distributed/etcdlock"
)

// ErrNilFactory is returned by NewEtcdLocker when given a nil
// etcdlock.Factory.
var ErrNilFactory = errors.New("scheduler: etcdlock factory cannot be nil")

// EtcdLocker adapts an etcdlock.Factory to the Locker seam, so a
// Scheduler can coordinate through etcd sessions instead of redlock's
// TTL-based quorum. ttl passed to TryLock is ignored: etcd locks renew
// via the session's own lease keepalive, so Renew here just confirms
// the session is still alive rather than extending anything.
type EtcdLocker struct {
	factory   etcdlock.Factory
	keyPrefix string
}

// EtcdLockerOption configures an EtcdLocker.
type EtcdLockerOption func(*EtcdLocker)

// WithEtcdKeyPrefix overrides the default "scheduler:" key prefix.
func WithEtcdKeyPrefix(prefix string) EtcdLockerOption {
	return func(l *EtcdLocker) { l.keyPrefix = prefix }
}

// NewEtcdLocker wraps factory as a Locker. The caller retains ownership
// of factory's lifecycle.
func NewEtcdLocker(factory etcdlock.Factory, opts ...EtcdLockerOption) (*EtcdLocker, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	l := &EtcdLocker{factory: factory, keyPrefix: "scheduler:"}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *EtcdLocker) TryLock(ctx context.Context, key string, _ time.Duration) (LockHandle, error) {
	handle, err := l.factory.TryLock(ctx, l.keyPrefix+key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockAcquireFailed, err)
	}
	if handle == nil {
		return nil, nil
	}
	return &etcdHandle{handle: handle, key: key}, nil
}

// Factory returns the underlying etcdlock.Factory.
func (l *EtcdLocker) Factory() etcdlock.Factory { return l.factory }

type etcdHandle struct {
	handle etcdlock.Handle
	key    string
}

func (h *etcdHandle) Unlock(ctx context.Context) error {
	if err := h.handle.Unlock(ctx); err != nil {
		if errors.Is(err, etcdlock.ErrNotLocked) {
			return ErrLockNotHeld
		}
		return fmt.Errorf("scheduler: etcd unlock: %w", err)
	}
	return nil
}

func (h *etcdHandle) Renew(ctx context.Context, _ time.Duration) error {
	if err := h.handle.Extend(ctx); err != nil {
		if errors.Is(err, etcdlock.ErrSessionExpired) {
			return ErrLockNotHeld
		}
		return fmt.Errorf("scheduler: etcd renew: %w", err)
	}
	return nil
}

func (h *etcdHandle) Key() string { return h.key }

var (
	_ Locker     = (*EtcdLocker)(nil)
	_ LockHandle = (*etcdHandle)(nil)
)
