package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// DefaultSignals returns the signals Run listens for by default:
// SIGHUP, SIGINT, SIGTERM, SIGQUIT. Each call returns a fresh slice.
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
}

// Group runs services concurrently and coordinates their shutdown: if
// any service returns an error, or the group is explicitly canceled,
// every other service's context is canceled too.
//
// Go and Cancel are safe to call from multiple goroutines; Wait should
// be called exactly once.
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup creates a Group and its derived context, canceled when any
// service returns a non-nil error or Cancel is called.
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{eg: eg, ctx: egCtx, causeCtx: causeCtx, cancel: cancel, opts: o}, egCtx
}

// Go runs fn in its own goroutine. A non-nil return cancels every
// other service's context.
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName behaves like Go but logs start/stop/failure under name.
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		g.opts.logger.Debug("service starting", slog.String("group", g.opts.name), slog.String("service", name))
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn("service exited with error", slog.String("group", g.opts.name), slog.String("service", name), slog.Any("error", err))
		} else {
			g.opts.logger.Debug("service stopped", slog.String("group", g.opts.name), slog.String("service", name))
		}
		return err
	})
}

// Wait blocks until every service has returned, then returns the first
// non-nil error. A plain context cancellation is suppressed in favor
// of the explicit cause passed to Cancel, if any; an uncaused
// cancellation (parent context ending) returns nil unless the error
// itself didn't come from cancellation.
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()

	if errors.Is(err, context.Canceled) {
		if g.causeCtx.Err() != nil {
			if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
				return cause
			}
			return nil
		}
		return err
	}
	if err == nil && g.causeCtx.Err() != nil {
		if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
	}
	return err
}

// Cancel stops every service, surfacing cause from Wait. cause must
// not itself wrap context.Canceled or Wait will treat it as a routine
// cancellation and suppress it.
func (g *Group) Cancel(cause error) { g.cancel(cause) }

// Context returns the group's derived context.
func (g *Group) Context() context.Context { return g.ctx }

// Run starts a signal listener (unless WithoutSignalHandler is set)
// alongside the services registered by setup, and blocks until all of
// them stop. A received signal cancels the group with a *SignalError.
func Run(ctx context.Context, opts []Option, setup func(g *Group)) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		signals := g.opts.signals
		if len(signals) == 0 {
			signals = DefaultSignals()
		}
		g.Go(func(ctx context.Context) error {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, signals...)
			defer signal.Stop(sigCh)

			select {
			case sig := <-sigCh:
				g.opts.logger.Info("received signal", slog.String("group", g.opts.name), slog.String("signal", sig.String()))
				g.cancel(&SignalError{Signal: sig})
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	setup(g)
	return g.Wait()
}
