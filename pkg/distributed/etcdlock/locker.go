package etcdlock

import "context"

// Handle represents one successful lock acquisition. A fresh Handle is
// returned by every successful TryLock/Lock call; only the Handle that
// acquired a lock can release or extend it.
type Handle interface {
	// Unlock releases the lock. Returns ErrNotLocked if the lock has
	// already been lost (session expired, lease revoked).
	Unlock(ctx context.Context) error

	// Extend checks session health. etcd locks renew automatically via
	// the session's lease keepalive, so this never lengthens anything;
	// it reports ErrSessionExpired if the underlying session has died,
	// which a caller can treat as "the lock may no longer be held".
	Extend(ctx context.Context) error

	// Key returns the full (prefixed) key backing this lock.
	Key() string
}

// Factory manages one etcd session and issues locks against it.
type Factory interface {
	// TryLock attempts a non-blocking acquisition. A lock already held
	// by someone else yields (nil, nil), not an error.
	TryLock(ctx context.Context, key string, opts ...MutexOption) (Handle, error)

	// Lock blocks until the lock is acquired or ctx ends.
	Lock(ctx context.Context, key string, opts ...MutexOption) (Handle, error)

	// Close releases the factory's session. Outstanding handles become
	// invalid.
	Close(ctx context.Context) error

	// Health reports whether the session is alive and the cluster is
	// reachable.
	Health(ctx context.Context) error

	// Session returns the underlying concurrency.Session.
	Session() Session
}
