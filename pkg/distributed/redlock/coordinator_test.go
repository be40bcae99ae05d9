package redlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCluster starts n independent miniredis servers and returns a
// Coordinator over all of them, plus a cleanup func.
func newTestCluster(t *testing.T, n int, opts ...CoordinatorOption) (*Coordinator, []*miniredis.Miniredis) {
	t.Helper()
	servers := make([]*miniredis.Miniredis, n)
	clients := make([]redis.UniversalClient, n)
	addrs := make([]string, n)
	for i := 0; i < n; i++ {
		mr := miniredis.RunT(t)
		servers[i] = mr
		clients[i] = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		addrs[i] = mr.Addr()
	}
	t.Cleanup(func() {
		for _, c := range clients {
			_ = c.Close()
		}
	})

	coord, err := NewCoordinator(context.Background(), clients, addrs, opts...)
	require.NoError(t, err)
	return coord, servers
}

func TestNewCoordinator_EmptyClients_ReturnsError(t *testing.T) {
	_, err := NewCoordinator(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoInstances)
}

func TestCoordinator_Lock_Unlock_RoundTrip(t *testing.T) {
	coord, _ := newTestCluster(t, 3)
	ctx := context.Background()

	lock, err := coord.Lock(ctx, "res-a", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "res-a", lock.Resource)
	assert.NotEmpty(t, lock.Value)
	assert.Greater(t, lock.Validity, int64(0))

	locked, err := coord.Locked(ctx, "res-a")
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, coord.Unlock(ctx, lock))

	locked, err = coord.Locked(ctx, "res-a")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestCoordinator_Lock_MutualExclusion(t *testing.T) {
	coord, _ := newTestCluster(t, 3, WithTries(1))
	ctx := context.Background()

	first, err := coord.Lock(ctx, "res-b", 5*time.Second)
	require.NoError(t, err)

	_, err = coord.Lock(ctx, "res-b", 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockUnavailable)

	require.NoError(t, coord.Unlock(ctx, first))
}

func TestCoordinator_Unlock_ForeignToken_IsNoop(t *testing.T) {
	coord, _ := newTestCluster(t, 3)
	ctx := context.Background()

	lock, err := coord.Lock(ctx, "res-c", 5*time.Second)
	require.NoError(t, err)

	foreign := &Lock{Resource: "res-c", Value: "not-the-real-token"}
	require.NoError(t, coord.Unlock(ctx, foreign))

	locked, err := coord.Locked(ctx, "res-c")
	require.NoError(t, err)
	assert.True(t, locked, "a foreign-token unlock must not release the real holder's lock")

	require.NoError(t, coord.Unlock(ctx, lock))
}

func TestCoordinator_Extend_OnlyIfLocked(t *testing.T) {
	coord, _ := newTestCluster(t, 3)
	ctx := context.Background()

	lock, err := coord.Lock(ctx, "res-d", 200*time.Millisecond)
	require.NoError(t, err)

	extended, err := coord.Lock(ctx, "res-d", 5*time.Second, WithExtend(lock), WithExtendOnlyIfLocked(true))
	require.NoError(t, err)
	assert.Equal(t, lock.Value, extended.Value)

	require.NoError(t, coord.Unlock(ctx, extended))
}

func TestCoordinator_Extend_ForeignToken_Fails(t *testing.T) {
	coord, _ := newTestCluster(t, 3, WithTries(1))
	ctx := context.Background()

	lock, err := coord.Lock(ctx, "res-e", 5*time.Second)
	require.NoError(t, err)

	foreign := &Lock{Resource: "res-e", Value: "bogus"}
	_, err = coord.Lock(ctx, "res-e", 5*time.Second, WithExtend(foreign), WithExtendOnlyIfLocked(true))
	assert.Error(t, err)

	require.NoError(t, coord.Unlock(ctx, lock))
}

func TestCoordinator_TTLOf_ReflectsRemainingWindow(t *testing.T) {
	coord, _ := newTestCluster(t, 3)
	ctx := context.Background()

	lock, err := coord.Lock(ctx, "res-f", 10*time.Second)
	require.NoError(t, err)

	ttl, ok, err := coord.TTLOf(ctx, lock)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, ttl, int64(0))
	assert.LessOrEqual(t, ttl, int64(10_000))

	require.NoError(t, coord.Unlock(ctx, lock))

	_, ok, err = coord.TTLOf(ctx, lock)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCoordinator_Valid_DetectsLostLock(t *testing.T) {
	coord, servers := newTestCluster(t, 3)
	ctx := context.Background()

	lock, err := coord.Lock(ctx, "res-g", 5*time.Second)
	require.NoError(t, err)

	valid, err := coord.Valid(ctx, lock)
	require.NoError(t, err)
	assert.True(t, valid)

	for _, s := range servers {
		s.FastForward(10 * time.Second)
	}

	valid, err = coord.Valid(ctx, lock)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestCoordinator_Health_AllUp(t *testing.T) {
	coord, _ := newTestCluster(t, 3)
	assert.NoError(t, coord.Health(context.Background()))
}

func TestCoordinator_Health_OneDown(t *testing.T) {
	coord, servers := newTestCluster(t, 3)
	servers[0].Close()
	err := coord.Health(context.Background())
	assert.Error(t, err)
}

func TestCoordinator_Lock_QuorumSurvivesMinorityFailure(t *testing.T) {
	coord, servers := newTestCluster(t, 3)
	ctx := context.Background()

	servers[0].Close()

	lock, err := coord.Lock(ctx, "res-h", 5*time.Second)
	require.NoError(t, err)
	assert.Greater(t, lock.Validity, int64(0))

	require.NoError(t, coord.Unlock(ctx, lock))
}

func TestCoordinator_Lock_FailsBelowQuorum(t *testing.T) {
	coord, servers := newTestCluster(t, 3, WithTries(1))
	ctx := context.Background()

	servers[0].Close()
	servers[1].Close()

	_, err := coord.Lock(ctx, "res-i", 5*time.Second)
	require.Error(t, err)
	var resErr *ResourceError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "res-i", resErr.Resource)
}

func TestCoordinator_Lock_SurvivesScriptCacheFlush(t *testing.T) {
	coord, _ := newTestCluster(t, 3)
	ctx := context.Background()

	// Simulate a SCRIPT FLUSH on a single backing server: the instance's
	// cached SHA no longer names anything the server knows, forcing
	// evalWithRecovery's one-shot reload path on the next call.
	require.NoError(t, coord.instances[0].client.ScriptFlush(ctx).Err())

	lock, err := coord.Lock(ctx, "res-flush", 5*time.Second)
	require.NoError(t, err)
	assert.Greater(t, lock.Validity, int64(0))

	require.NoError(t, coord.Unlock(ctx, lock))

	ttl, ok, err := coord.TTL(ctx, "res-flush")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, ttl)
}

func TestCoordinator_Lock_RejectsEmptyResourceAndBadTTL(t *testing.T) {
	coord, _ := newTestCluster(t, 1)
	ctx := context.Background()

	_, err := coord.Lock(ctx, "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyResource)

	_, err = coord.Lock(ctx, "res-j", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestMustLock_PropagatesFnResult(t *testing.T) {
	coord, _ := newTestCluster(t, 3)
	ctx := context.Background()

	n, err := MustLock(ctx, coord, "res-k", 5*time.Second, func(lock *Lock) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestMustLock_SurfacesAcquisitionError(t *testing.T) {
	coord, _ := newTestCluster(t, 3, WithTries(1))
	ctx := context.Background()

	held, err := coord.Lock(ctx, "res-l", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = coord.Unlock(ctx, held) }()

	_, err = MustLock(ctx, coord, "res-l", 5*time.Second, func(lock *Lock) (int, error) {
		t.Fatal("fn must not run when acquisition fails")
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrLockUnavailable)
}

func TestLocking_ScopedForm(t *testing.T) {
	coord, _ := newTestCluster(t, 3)
	ctx := context.Background()

	var ran bool
	ok := coord.Locking(ctx, "res-m", 5*time.Second, func(lock *Lock, err error) {
		require.NoError(t, err)
		ran = true
	})
	assert.True(t, ok)
	assert.True(t, ran)

	locked, err := coord.Locked(ctx, "res-m")
	require.NoError(t, err)
	assert.False(t, locked, "Locking must release on scope exit")
}
