package supervisor

import (
	"errors"
	"fmt"
	"os"
)

// ErrSignal is the sentinel matched via errors.Is(err, ErrSignal) to
// detect that Wait returned because of a received signal rather than a
// service failure.
var ErrSignal = errors.New("supervisor: received signal")

// ErrNilFunc is returned by Go when given a nil service function.
var ErrNilFunc = errors.New("supervisor: service function is nil")

// ErrInvalidInterval is returned by the Ticker actor when interval is
// not positive.
var ErrInvalidInterval = errors.New("supervisor: ticker interval must be positive")

// SignalError carries the specific signal that triggered shutdown.
// Match with errors.Is(err, ErrSignal); extract the signal with
// errors.As(err, &sigErr).
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "supervisor: received signal <nil>"
	}
	return fmt.Sprintf("supervisor: received signal %s", e.Signal)
}

func (e *SignalError) Is(target error) bool { return target == ErrSignal }

func (e *SignalError) Unwrap() error { return ErrSignal }
