package internal

import (
	"sync"

	"code.hybscloud.com/lfq"
)

const defaultMailboxCapacity = 64

// mailbox carries values from any goroutine to the single goroutine draining it.
// Producers are serialised; values that do not fit the ring wait in an overflow slice.
type mailbox[T any] struct {
	mu       sync.Mutex
	ring     lfq.SPSC[T]
	overflow []T
}

func (m *mailbox[T]) init(capacity int) {
	if capacity <= 0 {
		capacity = defaultMailboxCapacity
	}
	m.ring.Init(capacity)
}

func (m *mailbox[T]) push(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// keep order once values started spilling
	if len(m.overflow) == 0 {
		if err := m.ring.Enqueue(&v); err == nil {
			return
		}
	}
	m.overflow = append(m.overflow, v)
}

// drain hands every queued value to fn, oldest first.
func (m *mailbox[T]) drain(fn func(T)) int {
	n := 0
	for {
		v, err := m.ring.Dequeue()
		if err != nil {
			break
		}
		fn(v)
		n++
	}

	m.mu.Lock()
	spilled := m.overflow
	m.overflow = nil
	m.mu.Unlock()

	for _, v := range spilled {
		fn(v)
		n++
	}
	return n
}
