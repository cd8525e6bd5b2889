package scheduler

import (
	"context"
	"errors"
	"time"
)

// ErrStopped is returned when work is submitted to a stopped executor.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler fires fn once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// Executor is a Scheduler that also accepts work from other goroutines.
// Do blocks until fn has run on the executor's thread of control. It must
// not be called from inside a callback of the same executor.
type Executor interface {
	Scheduler
	Do(ctx context.Context, fn func()) error
	Stop()
}
