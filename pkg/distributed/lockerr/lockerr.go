// Package lockerr holds the one error-wrapping idiom shared by both
// locking backends (redlock and etcdlock): preserve context
// cancellation/deadline errors verbatim, and otherwise join a stable
// sentinel with the backend-specific error so both are reachable via
// errors.Is/As.
package lockerr

import (
	"context"
	"errors"
	"fmt"
)

// PassthroughContext returns err unchanged if it is (or wraps) a
// context cancellation/deadline error, and zero-value/false otherwise.
// Both backends check this first so a caller's ctx.Err() is never
// shadowed by a backend-specific sentinel.
func PassthroughContext(err error) (passthrough error, ok bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err, true
	}
	return nil, false
}

// Wrap joins sentinel with cause so both errors.Is(result, sentinel)
// and errors.Is(result, cause) succeed, and the message shows both.
func Wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}
