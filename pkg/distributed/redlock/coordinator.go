package redlock

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Coordinator owns a fixed set of Instance Adapters and implements the
// quorum protocol over them: lock, unlock, extend, the TTL introspection
// predicates, and the scoped convenience forms. It holds no per-resource
// state of its own; every fact it reports is recomputed from the backing
// servers on each call.
type Coordinator struct {
	instances []*instance
	quorum    int
	opts      *coordinatorOptions
	now       func() time.Time
	obs       *observer
}

// NewCoordinator builds a Coordinator over one Instance Adapter per
// client. Each client should point at an independent Redis-compatible
// server; addrs is used only to label per-instance breakers and must be
// the same length as clients, or may be nil to fall back to positional
// labels.
func NewCoordinator(ctx context.Context, clients []redis.UniversalClient, addrs []string, opts ...CoordinatorOption) (*Coordinator, error) {
	if len(clients) == 0 {
		return nil, ErrNoInstances
	}

	options := defaultCoordinatorOptions()
	for _, opt := range opts {
		opt(options)
	}

	instances := make([]*instance, len(clients))
	for i, c := range clients {
		label := addrPositional(addrs, i)
		in, err := newInstance(ctx, label, c)
		if err != nil {
			return nil, err
		}
		instances[i] = in
	}

	obs, err := newObserver(options.TracerProvider, options.MeterProvider)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		instances: instances,
		quorum:    len(instances)/2 + 1,
		opts:      options,
		now:       time.Now,
		obs:       obs,
	}, nil
}

func addrPositional(addrs []string, i int) string {
	if i < len(addrs) {
		return addrs[i]
	}
	return "instance-" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// Quorum returns floor(N/2)+1 for the configured instance set.
func (c *Coordinator) Quorum() int { return c.quorum }

func mintToken(gen func() (string, error)) (string, error) {
	if gen != nil {
		return gen()
	}
	return uuid.NewString(), nil
}

// Lock attempts to acquire resource for ttl, retrying per the
// configured policy. WithExtend turns this into a renewal of an
// existing token and forces a single attempt (no retries for extends).
func (c *Coordinator) Lock(ctx context.Context, resource string, ttl time.Duration, opts ...LockOption) (lock *Lock, err error) {
	ctx, span := c.obs.start(ctx, "lock", resource)
	defer func() { span.end(err) }()

	if err = validateResource(resource); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	lo := &lockOptions{}
	for _, opt := range opts {
		opt(lo)
	}

	token := ""
	allowFresh := true
	tries := c.opts.Tries
	op := "lock"
	if lo.extend != nil {
		if lo.extend.Value == "" {
			return nil, ErrNilDescriptor
		}
		op = "extend"
		token = lo.extend.Value
		allowFresh = !lo.extendOnlyIfLocked
		tries = 1
	} else {
		var err error
		token, err = mintToken(c.opts.GenValueFunc)
		if err != nil {
			return nil, err
		}
	}

	key := c.opts.KeyPrefix + resource
	ttlMillis := ttl.Milliseconds()

	var lastErr error
	for attempt := 0; attempt < tries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
		}

		t0 := c.now()
		granted := c.fanOutAcquire(ctx, key, token, ttlMillis, allowFresh)
		elapsed := c.now().Sub(t0).Milliseconds()
		validity := ttlMillis - elapsed - driftMillis(ttlMillis, c.opts.DriftFactor)

		if granted >= c.quorum && validity >= 0 {
			return &Lock{Resource: resource, Value: token, Validity: validity}, nil
		}

		c.fanOutRelease(detach(ctx), key, token)
		lastErr = newLockUnavailable(op, resource)
	}

	if lastErr == nil {
		lastErr = newLockUnavailable(op, resource)
	}
	return nil, lastErr
}

func (c *Coordinator) fanOutAcquire(ctx context.Context, key, token string, ttlMillis int64, allowFresh bool) int {
	granted := 0
	for _, in := range c.instances {
		ok, err := in.tryAcquire(ctx, key, token, ttlMillis, allowFresh)
		if err != nil {
			continue
		}
		if ok {
			granted++
		}
	}
	return granted
}

func (c *Coordinator) fanOutRelease(ctx context.Context, key, token string) {
	for _, in := range c.instances {
		_, _ = in.release(ctx, key, token)
	}
}

// Unlock unconditionally fans release out to every instance. Errors are
// suppressed: a lock whose key already expired and was reclaimed by a
// new holder must not be disturbed, which the UNLOCK script's token
// check already guarantees, and unreachable servers will drop the key
// on their own TTL.
func (c *Coordinator) Unlock(ctx context.Context, lock *Lock) error {
	if lock == nil {
		return ErrNilDescriptor
	}
	ctx, span := c.obs.start(ctx, "unlock", lock.Resource)
	defer span.end(nil)

	key := c.opts.KeyPrefix + lock.Resource
	c.fanOutRelease(ctx, key, lock.Value)
	return nil
}

// TTLOf runs the TTL introspection protocol for lock.Resource and
// returns lock's remaining validity iff lock.Value is the authoritative
// token. ok is false if there is no quorum-authoritative value, or if
// the authoritative value is not this lock's token.
func (c *Coordinator) TTLOf(ctx context.Context, lock *Lock) (int64, bool, error) {
	if lock == nil {
		return 0, false, ErrNilDescriptor
	}
	value, validity, ok, err := c.introspect(ctx, lock.Resource)
	if err != nil || !ok || value != lock.Value {
		return 0, false, err
	}
	return validity, true, nil
}

// TTL runs the TTL introspection protocol for resource and returns the
// TTL of whichever token is authoritative.
func (c *Coordinator) TTL(ctx context.Context, resource string) (int64, bool, error) {
	_, validity, ok, err := c.introspect(ctx, resource)
	return validity, ok, err
}

func (c *Coordinator) introspect(ctx context.Context, resource string) (string, int64, bool, error) {
	if err := validateResource(resource); err != nil {
		return "", 0, false, err
	}
	key := c.opts.KeyPrefix + resource

	t0 := c.now()
	readings := make([]ttlReading, 0, len(c.instances))
	for _, in := range c.instances {
		value, pttl, err := in.readTTL(ctx, key)
		if err != nil {
			continue
		}
		if value == "" {
			continue
		}
		readings = append(readings, ttlReading{value: value, pttl: pttl})
	}
	elapsed := c.now().Sub(t0).Milliseconds()

	value, validity, ok := introspectTTL(readings, c.quorum, elapsed, c.opts.DriftFactor)
	return value, validity, ok, nil
}

// Locked reports whether resource currently has a quorum-authoritative,
// unexpired holder.
func (c *Coordinator) Locked(ctx context.Context, resource string) (bool, error) {
	ttl, ok, err := c.TTL(ctx, resource)
	if err != nil {
		return false, err
	}
	return ok && ttl > 0, nil
}

// Valid reports whether lock is still the quorum-authoritative,
// unexpired holder of its resource.
func (c *Coordinator) Valid(ctx context.Context, lock *Lock) (bool, error) {
	ttl, ok, err := c.TTLOf(ctx, lock)
	if err != nil {
		return false, err
	}
	return ok && ttl > 0, nil
}

// Health pings every backing instance and reports the first error
// encountered, if any. It bypasses per-instance breakers and retry
// policy: it exists to answer "is the server reachable right now", not
// to participate in the quorum protocol.
func (c *Coordinator) Health(ctx context.Context) error {
	for _, in := range c.instances {
		if err := in.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// sleep waits out the inter-attempt retry delay plus jitter for the
// given 0-indexed attempt number, or returns ctx.Err() if ctx ends
// first.
func (c *Coordinator) sleep(ctx context.Context, attempt int) error {
	delay := c.opts.RetryDelay
	if c.opts.RetryDelayFunc != nil {
		delay = c.opts.RetryDelayFunc(attempt)
	}
	delay += jitter(c.opts.RetryJitter)
	slog.Debug("redlock: retrying acquisition", "attempt", attempt, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jitter returns a uniform random duration in [0, max) sourced from
// crypto/rand so concurrent clients retrying after the same failed
// attempt round don't re-collide in lockstep.
func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	f := float64(binary.BigEndian.Uint64(buf[:])) / float64(math.MaxUint64)
	return time.Duration(f * float64(max))
}

// detach returns ctx unchanged while it is still live, and a fresh
// context.Background() (no deadline, no cancellation, none of ctx's
// values) once ctx is done, so the release fan-out still runs when the
// caller's context was what aborted the attempt and no keys are orphaned.
func detach(ctx context.Context) context.Context {
	if ctx.Err() == nil {
		return ctx
	}
	return context.Background()
}
