package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// ErrNilJob is returned by AddFunc/AddJob when given a nil job.
var ErrNilJob = errors.New("scheduler: job cannot be nil")

// Scheduler runs named jobs on a cron schedule, coordinating across
// replicas through its configured Locker.
type Scheduler interface {
	// AddFunc registers a plain function as a job on spec (a cron
	// expression, e.g. "@every 1m" or "0 * * * *").
	AddFunc(spec string, cmd func(ctx context.Context) error, opts ...JobOption) (JobID, error)

	// AddJob registers a Job implementation.
	AddJob(spec string, job Job, opts ...JobOption) (JobID, error)

	// Remove unregisters a job. A currently-running invocation is not
	// interrupted.
	Remove(id JobID)

	// Start begins dispatching on the configured schedule. Non-blocking;
	// repeat calls have no effect.
	Start()

	// Stop halts new dispatch and returns a context that completes once
	// every in-flight execution has finished.
	Stop() context.Context

	// Cron returns the underlying *cron.Cron for direct access to
	// robfig/cron/v3 features this interface doesn't surface.
	Cron() *cron.Cron

	// Entries returns all registered jobs' schedule entries.
	Entries() []cron.Entry

	// Stats returns the scheduler's execution counters.
	Stats() *Stats
}

type cronScheduler struct {
	cron   *cron.Cron
	opts   *schedulerOptions
	locker Locker
	logger Logger
	stats  *Stats
}

// New constructs a Scheduler. With no options it uses NoopLocker, the
// local timezone, and minute-level cron precision.
func New(opts ...SchedulerOption) Scheduler {
	o := defaultSchedulerOptions()
	for _, opt := range opts {
		opt(o)
	}
	c := cron.New(cron.WithLocation(o.location), cron.WithParser(o.parser))
	return &cronScheduler{cron: c, opts: o, locker: o.locker, logger: o.logger, stats: newStats()}
}

func (s *cronScheduler) AddFunc(spec string, cmd func(ctx context.Context) error, opts ...JobOption) (JobID, error) {
	if cmd == nil {
		return 0, ErrNilJob
	}
	return s.AddJob(spec, JobFunc(cmd), opts...)
}

func (s *cronScheduler) AddJob(spec string, job Job, opts ...JobOption) (JobID, error) {
	var zero JobID
	if job == nil {
		return zero, ErrNilJob
	}

	jobOpts := defaultJobOptions()
	for _, opt := range opts {
		opt(jobOpts)
	}

	locker := jobOpts.locker
	if locker == nil {
		locker = s.locker
	}
	if jobOpts.name == "" {
		if _, isNoop := locker.(noopIndicator); !isNoop {
			s.logWarn(context.Background(), "job has a distributed locker but no name; lock will be skipped, use WithName()", "spec", spec)
		}
	}

	w := newJobWrapper(job, locker, s.logger, s.stats, jobOpts)
	id, err := s.cron.AddJob(spec, w)
	if err != nil {
		return zero, fmt.Errorf("scheduler: add job: %w", err)
	}
	return id, nil
}

func (s *cronScheduler) Remove(id JobID) { s.cron.Remove(id) }

func (s *cronScheduler) Start() { s.cron.Start() }

func (s *cronScheduler) Stop() context.Context { return s.cron.Stop() }

func (s *cronScheduler) Cron() *cron.Cron { return s.cron }

func (s *cronScheduler) Entries() []cron.Entry { return s.cron.Entries() }

func (s *cronScheduler) Stats() *Stats { return s.stats }

func (s *cronScheduler) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(ctx, msg, args...)
		return
	}
	slog.WarnContext(ctx, "scheduler: "+msg, args...)
}

var _ Scheduler = (*cronScheduler)(nil)
