package etcdlock

import "go.etcd.io/etcd/client/v3/concurrency"

// Session re-exports concurrency.Session so callers needing direct
// access (e.g. to build a second primitive, like an election, on the
// same lease) don't have to import the etcd client package themselves.
type Session = *concurrency.Session
