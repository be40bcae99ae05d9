package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
)

// JobID identifies a registered job, for later removal. It is an alias
// of cron.EntryID so callers can pass it straight to Cron() when they
// need the underlying library's own introspection.
type JobID = cron.EntryID

// Job is anything a Scheduler can run on a cron schedule. Run should
// observe ctx.Done() promptly: once a lock's renewal fails or the
// job's own timeout elapses, ctx is canceled out from under it.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Logger is the logging seam jobs and the scheduler itself write
// through. A nil Logger falls back to log/slog for warnings and
// errors, and drops debug-level detail entirely.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}
