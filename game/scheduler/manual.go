package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

type task struct {
	due time.Duration
	seq uint64
	fn  func()
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Manual is a virtual-clock Executor. Callbacks fire in due order, FIFO
// among equal due times, only when the clock is driven explicitly.
type Manual struct {
	// run serializes Do with clock driving so callbacks never overlap.
	run sync.Mutex

	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	tasks   taskHeap
	stopped bool
}

// NewManual returns a virtual clock at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	heap.Push(&m.tasks, &task{due: m.now + d, seq: m.seq, fn: fn})
	m.seq++
}

// Do runs fn synchronously. Zero-delay work it schedules stays pending until
// the clock is driven.
func (m *Manual) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.run.Lock()
	defer m.run.Unlock()

	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return ErrStopped
	}
	fn()
	return nil
}

// Stop drops all pending callbacks.
func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.tasks = nil
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of scheduled callbacks that have not fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunPending fires every callback due at the current time, including those
// scheduled with zero delay while draining. It returns how many fired.
func (m *Manual) RunPending() int {
	return m.Advance(0)
}

// Advance moves the clock forward by d, firing callbacks as their due time
// is reached. It returns how many fired.
func (m *Manual) Advance(d time.Duration) int {
	m.run.Lock()
	defer m.run.Unlock()

	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	fired := 0
	for {
		m.mu.Lock()
		if len(m.tasks) == 0 || m.tasks[0].due > target {
			m.now = target
			m.mu.Unlock()
			return fired
		}
		t := heap.Pop(&m.tasks).(*task)
		if t.due > m.now {
			m.now = t.due
		}
		m.mu.Unlock()

		t.fn()
		fired++
	}
}

// AdvanceUntilIdle jumps the clock from one due callback to the next until
// nothing is pending or limit callbacks have fired, and returns the count.
func (m *Manual) AdvanceUntilIdle(limit int) int {
	m.run.Lock()
	defer m.run.Unlock()

	fired := 0
	for fired < limit {
		m.mu.Lock()
		if len(m.tasks) == 0 {
			m.mu.Unlock()
			break
		}
		t := heap.Pop(&m.tasks).(*task)
		if t.due > m.now {
			m.now = t.due
		}
		m.mu.Unlock()

		t.fn()
		fired++
	}
	return fired
}
