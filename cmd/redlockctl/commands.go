package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/redquorum/redquorum/pkg/config/redlockconf"
	"github.com/redquorum/redquorum/pkg/distributed/redlock"
)

// buildCoordinator loads config (defaults + optional file + env) and
// dials a Coordinator over it. The caller owns closing the returned
// clients.
func buildCoordinator(ctx context.Context, configPath string) (*redlock.Coordinator, func(), error) {
	settings, err := redlockconf.Load(configPath, redlockconf.FormatYAML)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	clients, addrs, err := settings.BuildClients()
	if err != nil {
		return nil, nil, fmt.Errorf("build redis clients: %w", err)
	}
	coord, err := redlock.NewCoordinator(ctx, clients, addrs,
		redlock.WithKeyPrefix(settings.KeyPrefix),
		redlock.WithTries(settings.Tries),
		redlock.WithRetryDelay(settings.RetryDelay),
		redlock.WithRetryJitter(settings.RetryJitter),
		redlock.WithDriftFactor(settings.DriftFactor),
	)
	if err != nil {
		redlock.CloseClients(clients)
		return nil, nil, fmt.Errorf("build coordinator: %w", err)
	}
	closeFn := func() { redlock.CloseClients(clients) }
	return coord, closeFn, nil
}

func lockCommand() *cli.Command {
	return &cli.Command{
		Name:      "lock",
		Usage:     "acquire a lock on a resource",
		ArgsUsage: "<resource> <ttl>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 2 {
				return &usageError{"lock requires <resource> <ttl>"}
			}
			ttl, err := time.ParseDuration(args.Get(1))
			if err != nil {
				return &usageError{fmt.Sprintf("invalid ttl %q: %v", args.Get(1), err)}
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Root().Duration("timeout"))
			defer cancel()

			coord, closeFn, err := buildCoordinator(ctx, cmd.Root().String("config"))
			if err != nil {
				return err
			}
			defer closeFn()

			lock, err := coord.Lock(ctx, args.Get(0), ttl)
			if err != nil {
				return fmt.Errorf("lock %q: %w", args.Get(0), err)
			}
			fmt.Printf("locked %q token=%s validity=%dms\n", lock.Resource, lock.Value, lock.Validity)
			return nil
		},
	}
}

func unlockCommand() *cli.Command {
	return &cli.Command{
		Name:      "unlock",
		Usage:     "release a previously acquired lock",
		ArgsUsage: "<resource> <token>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 2 {
				return &usageError{"unlock requires <resource> <token>"}
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Root().Duration("timeout"))
			defer cancel()

			coord, closeFn, err := buildCoordinator(ctx, cmd.Root().String("config"))
			if err != nil {
				return err
			}
			defer closeFn()

			lock := &redlock.Lock{Resource: args.Get(0), Value: args.Get(1)}
			if err := coord.Unlock(ctx, lock); err != nil {
				return fmt.Errorf("unlock %q: %w", args.Get(0), err)
			}
			fmt.Printf("unlocked %q\n", args.Get(0))
			return nil
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "print a resource's current lock TTL",
		ArgsUsage: "<resource>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return &usageError{"inspect requires <resource>"}
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Root().Duration("timeout"))
			defer cancel()

			coord, closeFn, err := buildCoordinator(ctx, cmd.Root().String("config"))
			if err != nil {
				return err
			}
			defer closeFn()

			ttl, ok, err := coord.TTL(ctx, args.Get(0))
			if err != nil {
				return fmt.Errorf("inspect %q: %w", args.Get(0), err)
			}
			if !ok {
				fmt.Printf("%q is not locked\n", args.Get(0))
				return nil
			}
			fmt.Printf("%q: ttl=%sms\n", args.Get(0), strconv.FormatInt(ttl, 10))
			return nil
		},
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "ping every configured instance",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := context.WithTimeout(ctx, cmd.Root().Duration("timeout"))
			defer cancel()

			coord, closeFn, err := buildCoordinator(ctx, cmd.Root().String("config"))
			if err != nil {
				return err
			}
			defer closeFn()

			if err := coord.Health(ctx); err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			fmt.Println("all instances healthy")
			return nil
		},
	}
}
