package internal

import "sync"

// CommitQueue holds one-shot callbacks run after the next commit.
type CommitQueue struct {
	mu        sync.Mutex
	callbacks []func()
}

func NewCommitQueue() *CommitQueue {
	return &CommitQueue{
		callbacks: make([]func(), 0),
	}
}

func (q *CommitQueue) Enqueue(fn func()) {
	q.mu.Lock()
	q.callbacks = append(q.callbacks, fn)
	q.mu.Unlock()
}

func (q *CommitQueue) Run() {
	q.mu.Lock()
	callbacks := q.callbacks
	q.callbacks = make([]func(), 0)
	q.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// ErrorListeners are called with every fatal error of a root.
type ErrorListeners struct {
	mu        sync.Mutex
	listeners []func(error)
}

func (l *ErrorListeners) Add(fn func(error)) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

func (l *ErrorListeners) Notify(err error) {
	l.mu.Lock()
	listeners := append([]func(error){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
}
