package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// ===================== Scheduler options =====================

type schedulerOptions struct {
	locker   Locker
	logger   Logger
	location *time.Location
	parser   cron.Parser
}

func defaultSchedulerOptions() *schedulerOptions {
	return &schedulerOptions{
		locker:   NoopLocker(),
		logger:   nil,
		location: time.Local,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// SchedulerOption configures a Scheduler at construction time.
type SchedulerOption func(*schedulerOptions)

// WithLocker sets the scheduler-wide default Locker every job uses
// unless overridden by WithJobLocker. The default is NoopLocker.
func WithLocker(locker Locker) SchedulerOption {
	return func(o *schedulerOptions) {
		if locker != nil {
			o.locker = locker
		}
	}
}

// WithLogger sets the logger jobs and the scheduler itself report
// through.
func WithLogger(logger Logger) SchedulerOption {
	return func(o *schedulerOptions) { o.logger = logger }
}

// WithLocation sets the timezone cron expressions are interpreted in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) SchedulerOption {
	return func(o *schedulerOptions) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithSeconds enables seconds-precision cron expressions
// ("*/5 * * * * *" runs every 5 seconds).
func WithSeconds() SchedulerOption {
	return func(o *schedulerOptions) {
		o.parser = cron.NewParser(
			cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		)
	}
}

// ===================== Job options =====================

// MinLockTTL is the floor WithLockTTL enforces. Renewal runs every
// TTL/3, so a smaller TTL would renew more often than once a second.
const MinLockTTL = 3 * time.Second

type jobOptions struct {
	name        string
	locker      Locker
	lockTTL     time.Duration
	lockTimeout time.Duration
	timeout     time.Duration
}

func defaultJobOptions() *jobOptions {
	return &jobOptions{
		lockTTL:     5 * time.Minute,
		lockTimeout: 5 * time.Second,
	}
}

// JobOption configures a single job at registration time.
type JobOption func(*jobOptions)

// WithName sets the job's name, used as its lock key. Required for a
// job to participate in locking when the scheduler (or the job itself,
// via WithJobLocker) has a non-noop Locker configured; an unnamed job
// under a real Locker runs unlocked on every replica.
func WithName(name string) JobOption {
	return func(o *jobOptions) { o.name = name }
}

// WithJobLocker overrides the scheduler-wide Locker for one job.
func WithJobLocker(locker Locker) JobOption {
	return func(o *jobOptions) { o.locker = locker }
}

// WithLockTTL sets how long the job's lock holds before it must be
// renewed. Values below MinLockTTL are raised to it. Default 5m.
func WithLockTTL(ttl time.Duration) JobOption {
	return func(o *jobOptions) {
		if ttl <= 0 {
			return
		}
		if ttl < MinLockTTL {
			ttl = MinLockTTL
		}
		o.lockTTL = ttl
	}
}

// WithLockTimeout bounds how long a single TryLock/Renew call may take
// before it's treated as a lock-service error. Default 5s.
func WithLockTimeout(d time.Duration) JobOption {
	return func(o *jobOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithTimeout bounds the job's own execution time. Zero (the default)
// means no timeout beyond the lock's own TTL-driven cancellation.
func WithTimeout(d time.Duration) JobOption {
	return func(o *jobOptions) { o.timeout = d }
}
