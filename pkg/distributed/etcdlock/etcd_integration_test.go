//go:build integration

package etcdlock_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/redquorum/redquorum/pkg/distributed/etcdlock"
)

// setupEtcd connects to an external etcd cluster named by
// REDQUORUM_ETCD_ENDPOINTS, or starts a disposable one via
// testcontainers-go when that variable is unset.
func setupEtcd(t *testing.T) (*clientv3.Client, func()) {
	t.Helper()

	if endpoints := os.Getenv("REDQUORUM_ETCD_ENDPOINTS"); endpoints != "" {
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   []string{endpoints},
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			t.Skipf("cannot connect to etcd at %s: %v", endpoints, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := client.Status(ctx, endpoints); err != nil {
			_ = client.Close()
			t.Skipf("etcd health check failed for %s: %v", endpoints, err)
		}
		return client, func() { _ = client.Close() }
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "quay.io/coreos/etcd:v3.5.17",
		ExposedPorts: []string{"2379/tcp"},
		Cmd: []string{
			"etcd",
			"--advertise-client-urls=http://0.0.0.0:2379",
			"--listen-client-urls=http://0.0.0.0:2379",
		},
		WaitingFor: wait.ForLog("ready to serve client requests"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("cannot start etcd container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("fetch etcd endpoint: %v", err)
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{"http://" + endpoint},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("create etcd client: %v", err)
	}

	return client, func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
}

func TestNewFactory_Success(t *testing.T) {
	client, cleanup := setupEtcd(t)
	defer cleanup()

	factory, err := etcdlock.NewFactory(client)
	require.NoError(t, err)
	defer func() { _ = factory.Close(context.Background()) }()

	assert.NotNil(t, factory.Session())
}

func TestFactory_HealthAfterClose(t *testing.T) {
	client, cleanup := setupEtcd(t)
	defer cleanup()

	factory, err := etcdlock.NewFactory(client)
	require.NoError(t, err)
	_ = factory.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, factory.Health(ctx), etcdlock.ErrFactoryClosed)
}

func TestFactory_CloseIsIdempotent(t *testing.T) {
	client, cleanup := setupEtcd(t)
	defer cleanup()

	factory, err := etcdlock.NewFactory(client)
	require.NoError(t, err)

	assert.NoError(t, factory.Close(context.Background()))
	assert.NoError(t, factory.Close(context.Background()))
}

func TestFactory_LockUnlock_RoundTrip(t *testing.T) {
	client, cleanup := setupEtcd(t)
	defer cleanup()

	factory, err := etcdlock.NewFactory(client)
	require.NoError(t, err)
	defer func() { _ = factory.Close(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	handle, err := factory.Lock(ctx, "integration-lock")
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Contains(t, handle.Key(), "integration-lock")

	assert.NoError(t, handle.Unlock(ctx))
}

func TestFactory_TryLock_LockHeldByAnotherSession(t *testing.T) {
	client, cleanup := setupEtcd(t)
	defer cleanup()

	f1, err := etcdlock.NewFactory(client)
	require.NoError(t, err)
	defer func() { _ = f1.Close(context.Background()) }()

	f2, err := etcdlock.NewFactory(client)
	require.NoError(t, err)
	defer func() { _ = f2.Close(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	h1, err := f1.TryLock(ctx, "contended-lock")
	require.NoError(t, err)
	require.NotNil(t, h1)
	defer func() { _ = h1.Unlock(ctx) }()

	h2, err := f2.TryLock(ctx, "contended-lock")
	assert.NoError(t, err)
	assert.Nil(t, h2)
}

func TestFactory_Lock_ContextDeadlineSurfaces(t *testing.T) {
	client, cleanup := setupEtcd(t)
	defer cleanup()

	f1, err := etcdlock.NewFactory(client)
	require.NoError(t, err)
	defer func() { _ = f1.Close(context.Background()) }()

	f2, err := etcdlock.NewFactory(client)
	require.NoError(t, err)
	defer func() { _ = f2.Close(context.Background()) }()

	holderCtx, holderCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer holderCancel()
	h1, err := f1.TryLock(holderCtx, "blocked-lock")
	require.NoError(t, err)
	require.NotNil(t, h1)
	defer func() { _ = h1.Unlock(holderCtx) }()

	waiterCtx, waiterCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer waiterCancel()
	h2, err := f2.Lock(waiterCtx, "blocked-lock")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Nil(t, h2)
}

func TestFactory_Lock_MutualExclusionUnderConcurrency(t *testing.T) {
	client, cleanup := setupEtcd(t)
	defer cleanup()

	const goroutines = 5
	const iterations = 10
	var inCriticalSection int64
	var violations int64
	var wg sync.WaitGroup

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	factories := make([]etcdlock.Factory, goroutines)
	for i := 0; i < goroutines; i++ {
		f, err := etcdlock.NewFactory(client)
		require.NoError(t, err)
		factories[i] = f
	}
	defer func() {
		for _, f := range factories {
			_ = f.Close(context.Background())
		}
	}()

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(gid int) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				handle, err := factories[gid].Lock(ctx, "mutual-exclusion")
				if err != nil {
					t.Logf("lock attempt failed: %v", err)
					continue
				}
				current := atomic.AddInt64(&inCriticalSection, 1)
				if current != 1 {
					atomic.AddInt64(&violations, 1)
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt64(&inCriticalSection, -1)
				_ = handle.Unlock(ctx)
			}
		}(i)
	}

	wg.Wait()
	assert.Zero(t, violations, "mutual exclusion was violated under concurrent load")
}
