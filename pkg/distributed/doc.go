// Package distributed collects this module's distributed-coordination
// subpackages:
//
//   - redlock: Redlock quorum locking over Redis-compatible servers
//   - etcdlock: session-based locking over an etcd cluster
//   - lockerr: the error-wrapping helpers shared by both backends
package distributed
