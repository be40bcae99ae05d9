package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/redquorum/redquorum/pkg/distributed/redlock"
)

func TestReportLockStatus_UnlockedResource_DoesNotError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	coord, err := redlock.NewCoordinator(context.Background(), []redis.UniversalClient{client}, []string{mr.Addr()})
	require.NoError(t, err)

	require.NoError(t, reportLockStatus(context.Background(), coord, "idle-resource"))
}

func TestReportLockStatus_LockedResource_DoesNotError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	coord, err := redlock.NewCoordinator(context.Background(), []redis.UniversalClient{client}, []string{mr.Addr()})
	require.NoError(t, err)

	lock, err := coord.Lock(context.Background(), "busy-resource", time.Minute)
	require.NoError(t, err)
	defer func() { _ = coord.Unlock(context.Background(), lock) }()

	require.NoError(t, reportLockStatus(context.Background(), coord, "busy-resource"))
}
