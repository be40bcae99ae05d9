// Package scheduler runs cron-style jobs across a fleet of replicas,
// using a [Locker] so that only one replica executes a given job name
// at a time.
//
// It wraps github.com/robfig/cron/v3 the way the teacher's cron package
// does, but the distributed-lock side is narrower: where the original
// adapted a generic lock factory interface (etcd or Redis, picked by
// the caller), this package is built directly against a redlock
// [github.com/redquorum/redquorum/pkg/distributed/redlock.Coordinator]
// or an etcdlock factory through the same [Locker] seam, so either
// backend drops in without the scheduler knowing which one it got.
//
// Single-replica callers use [NoopLocker], which skips coordination
// entirely; this is also the default when no locker is configured.
package scheduler
