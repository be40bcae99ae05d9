// Package redlock implements the Redlock algorithm for distributed mutual
// exclusion over a set of independent Redis-compatible servers.
//
// # Design
//
// Two layers, leaves first:
//
//   - instance: wraps one backing server. Loads three Lua scripts once
//     (lock, unlock, read-TTL) and exposes atomic tryAcquire/release/readTTL.
//     Transparently reloads scripts when a server reports NOSCRIPT.
//   - Coordinator: owns the set of instances, the quorum threshold, the
//     retry policy, the drift constant and the monotonic time source.
//     Implements Lock (which also extends a held lock, via WithExtend),
//     Unlock, Locked, Valid, TTL and TTLOf.
//
// A caller asks the Coordinator for a lock on a resource with a TTL. The
// Coordinator mints a fresh random token (or reuses the token of a lock
// being extended), fans the request out to every instance, counts
// successes within a measured wall-clock interval, computes a validity
// figure, and returns a Lock iff a quorum granted it and the computed
// validity is non-negative. Otherwise it releases any partial state and
// reports failure, optionally retrying.
//
// # Safety argument
//
// Correctness rests on validity = ttl - elapsed - drift(ttl) >= 0 together
// with a quorum of instances acknowledging the grant, not on any single
// instance's own semantics. See [Coordinator.Lock] for the full protocol.
//
// # Non-goals
//
// redlock does not implement fencing tokens, durability across a
// full-cluster wipe, fairness between waiters, or any form of
// server-to-server coordination: the algorithm assumes the backing
// servers know nothing of each other.
//
// # Relationship to etcdlock
//
// [github.com/redquorum/redquorum/pkg/distributed/etcdlock] solves the same
// problem (mutual exclusion across processes) on top of etcd's Raft-backed
// linearizability instead of Redlock's clock-dependent quorum argument. The
// two packages never share state; pick one per resource based on which
// trade-off (probabilistic safety with no coordination vs. strong
// consistency with a coordinated cluster) fits the caller.
package redlock
