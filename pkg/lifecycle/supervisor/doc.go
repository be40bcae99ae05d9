// Package supervisor runs a set of long-lived services under one
// cancelable context, stopping all of them as soon as any one exits
// with an error, a signal arrives, or the parent context ends.
//
// It is the graceful-shutdown harness redlockctl's long-running
// subcommand (watch) runs under, adapted from the teacher's
// generic errgroup-based lifecycle group down to the pieces this
// module actually needs: Go/Wait/Cancel plus the signal-triggered
// convenience entry point Run.
package supervisor
