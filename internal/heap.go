package internal

import "math/bits"

// TaskHeap buckets scheduled callbacks by lane.
// Buckets are FIFO and the most urgent non-empty bucket is served first.
type TaskHeap struct {
	min   int
	max   int
	count int

	tasks [32]*heapTask // [lane index]head
}

type heapTask struct {
	fn   func()
	lane Lane

	next *heapTask
	prev *heapTask
}

func NewTaskHeap() *TaskHeap {
	return &TaskHeap{min: 32, max: -1}
}

func laneIndex(lane Lane) int {
	if lane == NoLane {
		return 31
	}
	return bits.TrailingZeros32(uint32(lane.Highest()))
}

func (h *TaskHeap) Insert(lane Lane, fn func()) {
	entry := &heapTask{fn: fn, lane: lane}
	i := laneIndex(lane)

	if h.tasks[i] == nil {
		h.tasks[i] = entry
		entry.prev = entry // loop to self
		entry.next = nil
	} else {
		head := h.tasks[i]
		tail := head.prev

		tail.next = entry
		entry.prev = tail
		entry.next = nil
		head.prev = entry
	}

	if i < h.min {
		h.min = i
	}
	if i > h.max {
		h.max = i
	}
	h.count++
}

// Pop removes the oldest task of the most urgent bucket.
func (h *TaskHeap) Pop() (func(), bool) {
	for ; h.min <= h.max; h.min++ {
		head := h.tasks[h.min]
		if head == nil {
			continue
		}

		next := head.next
		if next != nil {
			next.prev = head.prev
		}
		h.tasks[h.min] = next

		head.next = nil
		head.prev = head
		h.count--
		return head.fn, true
	}

	h.min, h.max = 32, -1
	return nil, false
}

func (h *TaskHeap) Len() int {
	return h.count
}
