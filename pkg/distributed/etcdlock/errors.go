package etcdlock

import (
	"errors"

	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/redquorum/redquorum/pkg/distributed/lockerr"
)

var (
	ErrNilClient      = errors.New("etcdlock: client is nil")
	ErrEmptyKey       = errors.New("etcdlock: key must not be empty")
	ErrFactoryClosed  = errors.New("etcdlock: factory is closed")
	ErrSessionExpired = errors.New("etcdlock: session expired")
	ErrLockHeld       = errors.New("etcdlock: lock is held by another holder")
	ErrNotLocked      = errors.New("etcdlock: lock not held by this handle")
)

// wrapEtcdError maps concurrency package sentinels onto ours, keeping
// the original error chain reachable via errors.Is/As.
func wrapEtcdError(err error) error {
	if err == nil {
		return nil
	}
	if passthrough, ok := lockerr.PassthroughContext(err); ok {
		return passthrough
	}
	if errors.Is(err, concurrency.ErrLocked) {
		return lockerr.Wrap(ErrLockHeld, err)
	}
	if errors.Is(err, concurrency.ErrSessionExpired) {
		return lockerr.Wrap(ErrSessionExpired, err)
	}
	if errors.Is(err, concurrency.ErrLockReleased) {
		return lockerr.Wrap(ErrNotLocked, err)
	}
	return err
}
