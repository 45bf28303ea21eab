package internal

import (
	"context"
	"time"

	"code.hybscloud.com/iox"
)

// Scheduler is the host side of cooperative scheduling.
type Scheduler interface {
	// ShouldYield reports whether the current slice of work should stop.
	ShouldYield() bool
	// RequestCallback asks for fn to be called later. Safe from any goroutine.
	RequestCallback(lane Lane, fn func())
}

const DefaultTimeSlice = 5 * time.Millisecond

type scheduledTask struct {
	lane Lane
	fn   func()
}

// Loop is a cooperative Scheduler: callbacks run most urgent lane first,
// a tick runs them until its time slice is spent.
type Loop struct {
	slice time.Duration
	now   func() time.Time

	// zero outside of a tick
	deadline time.Time

	heap     *TaskHeap
	inbox    mailbox[scheduledTask]
	capacity int
}

type LoopOption func(*Loop)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

func WithMailboxCapacity(n int) LoopOption {
	return func(l *Loop) { l.capacity = n }
}

func NewLoop(slice time.Duration, opts ...LoopOption) *Loop {
	if slice <= 0 {
		slice = DefaultTimeSlice
	}

	l := &Loop{
		slice: slice,
		now:   time.Now,
		heap:  NewTaskHeap(),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.inbox.init(l.capacity)
	return l
}

func (l *Loop) ShouldYield() bool {
	if l.deadline.IsZero() {
		return false
	}
	return !l.now().Before(l.deadline)
}

func (l *Loop) RequestCallback(lane Lane, fn func()) {
	l.inbox.push(scheduledTask{lane: lane, fn: fn})
}

// Tick runs the callbacks requested so far, most urgent first, until the
// time slice is spent. Callbacks requested during the tick wait for the next one.
// It returns how many callbacks ran.
func (l *Loop) Tick() int {
	l.inbox.drain(func(t scheduledTask) {
		l.heap.Insert(t.lane, t.fn)
	})

	l.deadline = l.now().Add(l.slice)
	defer func() { l.deadline = time.Time{} }()

	ran := 0
	for l.heap.Len() > 0 {
		if ran > 0 && !l.now().Before(l.deadline) {
			break
		}

		fn, _ := l.heap.Pop()
		fn()
		ran++
	}
	return ran
}

// Pending reports how many callbacks wait in the heap.
// Callbacks still in the inbox are not counted until the next tick.
func (l *Loop) Pending() int {
	return l.heap.Len()
}

// Drain ticks until no callback is left.
func (l *Loop) Drain() {
	for {
		if l.Tick() == 0 && l.heap.Len() == 0 {
			return
		}
	}
}

// Run ticks until ctx is done, backing off while there is nothing to run.
func (l *Loop) Run(ctx context.Context) error {
	for {
		var bo iox.Backoff
		for l.Tick() == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			bo.Wait()
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
