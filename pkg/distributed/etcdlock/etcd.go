package etcdlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	retry "github.com/avast/retry-go/v5"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

// factory implements Factory over a single etcd client.
type factory struct {
	client *clientv3.Client
	opts   *factoryOptions
	closed atomic.Bool

	mu      sync.RWMutex
	session *concurrency.Session
}

// NewFactory creates a lock factory backed by an already-connected etcd
// client. The caller retains ownership of client (Close does not close
// it).
func NewFactory(client *clientv3.Client, opts ...FactoryOption) (Factory, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	options := defaultFactoryOptions()
	for _, opt := range opts {
		opt(options)
	}

	f := &factory{client: client, opts: options}
	session, err := f.newSession(context.Background())
	if err != nil {
		return nil, err
	}
	f.session = session
	return f, nil
}

// newSession creates a concurrency.Session, retrying transient failures
// (the etcd cluster being momentarily unreachable during a leader
// election, for instance) with backoff rather than failing on the
// first attempt.
func (f *factory) newSession(ctx context.Context) (*concurrency.Session, error) {
	var session *concurrency.Session
	err := retry.Do(
		func() error {
			s, err := concurrency.NewSession(
				f.client,
				concurrency.WithTTL(f.opts.TTL),
				concurrency.WithContext(f.opts.Context),
			)
			if err != nil {
				return err
			}
			session = s
			return nil
		},
		retry.Attempts(f.opts.SessionRetries),
		retry.Delay(f.opts.SessionRetryWait),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("etcdlock: create session: %w", err)
	}
	return session, nil
}

// currentSession returns the live session, transparently replacing it
// if the previous one has expired.
func (f *factory) currentSession(ctx context.Context) (*concurrency.Session, error) {
	f.mu.RLock()
	s := f.session
	f.mu.RUnlock()

	select {
	case <-s.Done():
	default:
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.session.Done():
	default:
		return f.session, nil
	}
	fresh, err := f.newSession(ctx)
	if err != nil {
		return nil, ErrSessionExpired
	}
	f.session = fresh
	return fresh, nil
}

func (f *factory) TryLock(ctx context.Context, key string, opts ...MutexOption) (Handle, error) {
	return f.acquire(ctx, key, opts, true)
}

func (f *factory) Lock(ctx context.Context, key string, opts ...MutexOption) (Handle, error) {
	return f.acquire(ctx, key, opts, false)
}

func (f *factory) acquire(ctx context.Context, key string, opts []MutexOption, nonBlocking bool) (Handle, error) {
	if f.closed.Load() {
		return nil, ErrFactoryClosed
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	session, err := f.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	options := defaultMutexOptions()
	for _, opt := range opts {
		opt(options)
	}
	fullKey := options.KeyPrefix + key
	mutex := concurrency.NewMutex(session, fullKey)

	if nonBlocking {
		err = mutex.TryLock(ctx)
	} else {
		err = mutex.Lock(ctx)
	}
	if err != nil {
		wrapped := wrapEtcdError(err)
		if nonBlocking && errors.Is(wrapped, ErrLockHeld) {
			return nil, nil
		}
		return nil, wrapped
	}

	return &handle{factory: f, mutex: mutex, key: fullKey}, nil
}

func (f *factory) Close(context.Context) error {
	if f.closed.Swap(true) {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.session.Close()
}

func (f *factory) Health(ctx context.Context) error {
	if f.closed.Load() {
		return ErrFactoryClosed
	}
	f.mu.RLock()
	session := f.session
	f.mu.RUnlock()
	select {
	case <-session.Done():
		return ErrSessionExpired
	default:
	}
	for _, ep := range f.client.Endpoints() {
		if _, err := f.client.Status(ctx, ep); err != nil {
			return err
		}
	}
	return nil
}

func (f *factory) Session() Session {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.session
}

// handle implements Handle over one concurrency.Mutex.
type handle struct {
	factory *factory
	mutex   *concurrency.Mutex
	key     string
}

func (h *handle) Unlock(ctx context.Context) error {
	if err := h.mutex.Unlock(ctx); err != nil {
		return wrapEtcdError(err)
	}
	return nil
}

func (h *handle) Extend(ctx context.Context) error {
	if h.factory.closed.Load() {
		return ErrFactoryClosed
	}
	_, err := h.factory.currentSession(ctx)
	return err
}

func (h *handle) Key() string { return h.key }
