package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// jobWrapper adapts a Job to cron.Job, adding lock acquisition,
// renewal, and timeout around the underlying Run.
type jobWrapper struct {
	job    Job
	opts   *jobOptions
	locker Locker
	logger Logger
	stats  *Stats
}

func newJobWrapper(job Job, locker Locker, logger Logger, stats *Stats, opts *jobOptions) *jobWrapper {
	return &jobWrapper{job: job, opts: opts, locker: locker, logger: logger, stats: stats}
}

// renewal tracks one execution's lock-renewal goroutine, created fresh
// per Run so concurrent executions (overlapping ticks of a
// long-running job) never share renewal state.
type renewal struct {
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	taskCancel context.CancelFunc
	handle     LockHandle
}

// Run implements cron.Job.
func (w *jobWrapper) Run() {
	start := time.Now()
	ctx, taskCancel := context.WithCancel(context.Background())
	defer taskCancel()

	rn, lockErr := w.acquire(ctx, taskCancel)
	if rn == nil && w.opts.name != "" && w.locker != nil {
		if lockErr != nil {
			w.stats.recordExecution(0, lockErr)
		} else {
			w.stats.recordSkip()
		}
		return
	}

	if w.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.timeout)
		defer cancel()
	}

	err := w.execute(ctx, rn)
	w.stats.recordExecution(time.Since(start), err)
	w.logResult(ctx, err)
}

func (w *jobWrapper) acquire(ctx context.Context, taskCancel context.CancelFunc) (*renewal, error) {
	if w.opts.name == "" || w.locker == nil {
		return nil, nil
	}

	lockCtx := ctx
	if w.opts.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, w.opts.lockTimeout)
		defer cancel()
	}

	handle, err := w.safeTryLock(lockCtx)
	if err != nil {
		w.logWarn(ctx, "lock service error", "job", w.opts.name, "error", err)
		return nil, err
	}
	if handle == nil {
		w.logDebug(ctx, "lock not acquired, skipping", "job", w.opts.name)
		return nil, nil
	}
	return w.startRenewal(ctx, taskCancel, handle), nil
}

// safeTryLock converts a panicking Locker implementation into an
// error, so a broken third-party locker can't crash the scheduler's
// goroutine.
func (w *jobWrapper) safeTryLock(ctx context.Context) (handle LockHandle, err error) {
	defer func() {
		if r := recover(); r != nil {
			handle, err = nil, fmt.Errorf("scheduler: locker.TryLock panicked: %v", r)
		}
	}()
	return w.locker.TryLock(ctx, w.opts.name, w.opts.lockTTL)
}

func (w *jobWrapper) startRenewal(ctx context.Context, taskCancel context.CancelFunc, handle LockHandle) *renewal {
	interval := max(w.opts.lockTTL/3, time.Second)
	renewCtx, cancel := context.WithCancel(ctx)
	rn := &renewal{cancel: cancel, taskCancel: taskCancel, handle: handle}

	rn.wg.Add(1)
	go func() {
		defer rn.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				w.logError(ctx, "lock renewal panicked, canceling job", "job", w.opts.name, "panic", r)
				taskCancel()
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-renewCtx.Done():
				return
			case <-ticker.C:
				timeout := min(w.opts.lockTimeout, w.opts.lockTTL/3)
				if timeout <= 0 {
					timeout = 5 * time.Second
				}
				callCtx, callCancel := context.WithTimeout(renewCtx, timeout)
				err := handle.Renew(callCtx, w.opts.lockTTL)
				callCancel()
				if err != nil {
					w.logError(ctx, "lock renewal failed, canceling job to prevent concurrent execution",
						"job", w.opts.name, "error", err)
					taskCancel()
					return
				}
			}
		}
	}()
	return rn
}

func (w *jobWrapper) execute(ctx context.Context, rn *renewal) (err error) {
	defer func() {
		if rn == nil {
			return
		}
		rn.cancel()
		rn.wg.Wait()
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if uerr := rn.handle.Unlock(unlockCtx); uerr != nil {
			w.logWarn(ctx, "failed to release lock", "job", w.opts.name, "error", uerr)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: job %q panicked: %v", w.opts.name, r)
		}
	}()
	return w.job.Run(ctx)
}

func (w *jobWrapper) logResult(ctx context.Context, err error) {
	if err != nil {
		w.logError(ctx, "job failed", "job", w.opts.name, "error", err)
	} else {
		w.logDebug(ctx, "job completed", "job", w.opts.name)
	}
}

func (w *jobWrapper) logDebug(ctx context.Context, msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(ctx, msg, args...)
	}
}

func (w *jobWrapper) logWarn(ctx context.Context, msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(ctx, msg, args...)
	} else {
		slog.WarnContext(ctx, "scheduler: "+msg, args...)
	}
}

func (w *jobWrapper) logError(ctx context.Context, msg string, args ...any) {
	if w.logger != nil {
		w.logger.Error(ctx, msg, args...)
	} else {
		slog.ErrorContext(ctx, "scheduler: "+msg, args...)
	}
}
