package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// fakeHandle is a test double for LockHandle that counts Unlock/Renew
// calls and can be made to fail either.
type fakeHandle struct {
	key string

	mu          sync.Mutex
	unlocked    bool
	unlockCount int
	renewCount  int
	renewErr    error
	renewPanic  bool
}

func (h *fakeHandle) Unlock(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unlocked = true
	h.unlockCount++
	return nil
}

func (h *fakeHandle) Renew(context.Context, time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renewCount++
	if h.renewPanic {
		panic("renew panic")
	}
	return h.renewErr
}

func (h *fakeHandle) Key() string { return h.key }

func (h *fakeHandle) wasUnlocked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unlocked
}

func (h *fakeHandle) renews() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.renewCount
}

// fakeLocker is a test double for Locker whose TryLock behavior is
// fully scripted by the test.
type fakeLocker struct {
	handle     LockHandle
	err        error
	panicValue any

	calls atomic.Int64
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (LockHandle, error) {
	l.calls.Add(1)
	if l.panicValue != nil {
		panic(l.panicValue)
	}
	return l.handle, l.err
}

// countingJob is a test double for Job that records how many times it
// ran and can block until signaled, or return a scripted error.
type countingJob struct {
	runs   atomic.Int64
	err    error
	block  chan struct{}
	onRun  func(ctx context.Context)
	panics bool
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.onRun != nil {
		j.onRun(ctx)
	}
	if j.block != nil {
		<-j.block
	}
	if j.panics {
		panic("job panic")
	}
	return j.err
}

var errJobFailed = errors.New("job failed")
