package breaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrNilContext is returned by Do when given a nil context.
	ErrNilContext = errors.New("breaker: context must not be nil")
	// ErrNilFunc is returned by Do when given a nil function.
	ErrNilFunc = errors.New("breaker: fn must not be nil")
)

// State re-exports gobreaker's state enum.
type State = gobreaker.State

// Re-exported state constants.
const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Error reports that a call was rejected by an open (or saturated
// half-open) breaker rather than by fn itself. It deliberately does not
// implement Unwrap: a caller one layer up retrying on errors.Is(err,
// someLowerLevelErr) must not see this short-circuit as if fn had run and
// returned that error, or a nested breaker's rejection could be
// misattributed to the wrapped operation.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("breaker %q: %v", e.Name, e.Err)
}

func wrapBreakerError(err error, name string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &Error{Name: name, Err: err}
	}
	return err
}

// IsOpen reports whether err was rejected because the breaker was open
// (or half-open and saturated), as opposed to fn having run and failed.
func IsOpen(err error) bool {
	var be *Error
	return errors.As(err, &be)
}
