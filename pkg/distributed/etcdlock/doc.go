// Package etcdlock is a secondary locking backend built on
// go.etcd.io/etcd/client/v3/concurrency. Unlike redlock, it does not
// implement a quorum protocol of its own: a single etcd cluster already
// provides linearizable consensus, so one concurrency.Session/Mutex
// pair is sufficient for mutual exclusion. It exists for callers who
// already run an etcd cluster for service discovery or configuration
// and would rather not stand up a second Redis deployment purely for
// locking.
//
// Lock lifetime here is session-based rather than TTL-based: a Session
// keeps a lease alive with background keepalives, and a lock held under
// that session is valid for as long as the session itself is, with no
// manual Extend call required. Extend on a Handle therefore checks
// session health rather than renewing anything.
//
// If the session's keepalive loop ever observes the lease expire (the
// process was paused, the network partitioned), NewFactory's automatic
// session replacement retries session creation with backoff via
// avast/retry-go/v5 before giving up.
package etcdlock
