package redlock_test

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/redquorum/redquorum/pkg/distributed/redlock"
)

func newExampleCoordinator() (*redlock.Coordinator, func()) {
	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		panic(err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	coord, err := redlock.NewCoordinator(context.Background(), []redis.UniversalClient{client}, []string{mr.Addr()})
	if err != nil {
		panic(err)
	}
	return coord, func() {
		_ = client.Close()
		mr.Close()
	}
}

func ExampleCoordinator_Lock() {
	coord, cleanup := newExampleCoordinator()
	defer cleanup()

	lock, err := coord.Lock(context.Background(), "invoice:42", 10*time.Second)
	if err != nil {
		fmt.Println("lock failed:", err)
		return
	}
	defer func() { _ = coord.Unlock(context.Background(), lock) }()

	fmt.Println(lock.Resource)
	// Output:
	// invoice:42
}

func ExampleCoordinator_Locking() {
	coord, cleanup := newExampleCoordinator()
	defer cleanup()

	ok := coord.Locking(context.Background(), "invoice:43", 10*time.Second, func(lock *redlock.Lock, err error) {
		if err != nil {
			fmt.Println("locking failed:", err)
			return
		}
		fmt.Println("processing", lock.Resource)
	})
	fmt.Println("acquired:", ok)
	// Output:
	// processing invoice:43
	// acquired: true
}

func ExampleMustLock() {
	coord, cleanup := newExampleCoordinator()
	defer cleanup()

	total, err := redlock.MustLock(context.Background(), coord, "invoice:44", 10*time.Second,
		func(lock *redlock.Lock) (int, error) {
			return 42, nil
		})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(total)
	// Output:
	// 42
}
