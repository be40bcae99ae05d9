package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats aggregates job execution counts across a Scheduler. Safe for
// concurrent reads while jobs are executing.
type Stats struct {
	totalExecutions atomic.Int64
	successCount    atomic.Int64
	failureCount    atomic.Int64
	skipCount       atomic.Int64

	mu           sync.RWMutex
	lastExecTime time.Time
	lastDuration time.Duration
	lastError    error
}

func newStats() *Stats {
	return &Stats{}
}

func (s *Stats) recordExecution(d time.Duration, err error) {
	s.totalExecutions.Add(1)
	if err != nil {
		s.failureCount.Add(1)
	} else {
		s.successCount.Add(1)
	}
	s.mu.Lock()
	s.lastExecTime = time.Now()
	s.lastDuration = d
	s.lastError = err
	s.mu.Unlock()
}

func (s *Stats) recordSkip() {
	s.skipCount.Add(1)
}

// TotalExecutions returns the number of recorded executions: job runs
// plus lock-service errors that kept a job from running. Routine
// lock-contention skips are not counted.
func (s *Stats) TotalExecutions() int64 { return s.totalExecutions.Load() }

// SuccessCount returns the number of executions that returned a nil
// error.
func (s *Stats) SuccessCount() int64 { return s.successCount.Load() }

// FailureCount returns the number of executions that returned a
// non-nil error (including a panic converted to an error), plus
// lock-service errors (including a panicking Locker) that kept a job
// from running.
func (s *Stats) FailureCount() int64 { return s.failureCount.Load() }

// SkipCount returns the number of ticks skipped because another
// replica held the job's lock.
func (s *Stats) SkipCount() int64 { return s.skipCount.Load() }

// LastError returns the error from the most recent execution, or nil
// if the scheduler has not run a job yet or the last run succeeded.
func (s *Stats) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// LastExecTime returns when the most recent execution was recorded,
// i.e. when it finished (or when its lock-service error occurred).
func (s *Stats) LastExecTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastExecTime
}
