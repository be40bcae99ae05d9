// redlockctl is a command-line client for a redlock Coordinator: it
// acquires, releases, and inspects locks against the same server list
// an embedding service would use, and can run a cron-scheduled "watch"
// job that periodically reports on a resource's lock health.
//
// Usage:
//
//	redlockctl [global flags] <command> [command args]
//
// Global flags:
//
//	-c, --config    path to a YAML/JSON config file (optional)
//	-t, --timeout   per-command timeout (default 10s)
//
// Commands:
//
//	lock <resource> <ttl>      acquire a lock, print its token and validity
//	unlock <resource> <token>  release a previously acquired lock
//	inspect <resource>         print the resource's current TTL
//	health                     ping every configured instance
//	watch <resource> <spec>    periodically report lock health on a cron schedule
//
// Exit codes:
//
//	0: success
//	1: command failed
//	2: argument error
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "redlockctl",
		Usage:   "inspect and operate a redlock Coordinator from the command line",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML/JSON config file",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "per-command timeout",
				Value:   10 * time.Second,
			},
		},
		Commands: []*cli.Command{
			lockCommand(),
			unlockCommand(),
			inspectCommand(),
			healthCommand(),
			watchCommand(),
		},
	}
}

// usageError marks an argument-count/parsing problem, mapped to exit
// code 2 by run, matching the cleaner separation the teacher's own CLI
// draws between "bad input" and "command failed".
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func run() int {
	app := createApp()
	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		var uerr *usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(os.Stderr, "argument error: %v\n", uerr)
			return 2
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
