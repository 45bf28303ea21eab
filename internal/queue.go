package internal

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// UpdateTag selects how an update record combines with the previous state.
type UpdateTag uint8

const (
	MergeState UpdateTag = iota
	ReplaceState
	ForceUpdate
	CaptureUpdate
)

func (t UpdateTag) String() string {
	switch t {
	case MergeState:
		return "merge"
	case ReplaceState:
		return "replace"
	case ForceUpdate:
		return "force"
	case CaptureUpdate:
		return "capture"
	}
	return "unknown"
}

// PayloadFunc computes a payload from the state before the record and the node props.
type PayloadFunc func(prev, props any) any

// Update is one pending mutation of a node's state.
type Update struct {
	EventTime uint32
	Lane      Lane
	Tag       UpdateTag
	Payload   any
	Callback  func()

	next *Update
}

var eventClock atomix.Uint32

// NewUpdate creates a record on a single lane: the most urgent of lane,
// or DefaultLane when lane is empty.
func NewUpdate(lane Lane, tag UpdateTag, payload any) *Update {
	return &Update{
		EventTime: eventClock.Add(1),
		Lane:      updateLane(lane),
		Tag:       tag,
		Payload:   payload,
	}
}

func updateLane(lane Lane) Lane {
	if lane == NoLane {
		return DefaultLane
	}
	return lane.Highest()
}

// clone copies u for the retained base list.
// A clone that re-applies an already applied record (NoLane) drops its callback.
func (u *Update) clone(lane Lane) *Update {
	c := &Update{
		EventTime: u.EventTime,
		Lane:      lane,
		Tag:       u.Tag,
		Payload:   u.Payload,
	}
	if lane != NoLane {
		c.Callback = u.Callback
	}
	return c
}

// sharedQueue is written by any goroutine and read by the build.
// Both buffers of a node point at the same one.
type sharedQueue struct {
	mu      sync.Mutex
	pending *Update // circular, points at the last record

	// goroutine currently folding the queue, 0 when idle
	folding int64
}

// UpdateQueue holds the records of a node that were not folded into its committed state yet.
type UpdateQueue struct {
	baseState       any
	firstBaseUpdate *Update
	lastBaseUpdate  *Update

	shared *sharedQueue

	// records with callbacks, fired after commit
	effects []*Update
}

func NewUpdateQueue(baseState any) *UpdateQueue {
	return &UpdateQueue{
		baseState: baseState,
		shared:    &sharedQueue{},
	}
}

func (q *UpdateQueue) clone() *UpdateQueue {
	return &UpdateQueue{
		baseState:       q.baseState,
		firstBaseUpdate: q.firstBaseUpdate,
		lastBaseUpdate:  q.lastBaseUpdate,
		shared:          q.shared,
		effects:         q.effects,
	}
}

// cloneUpdateQueue gives wip its own queue object when it still shares current's.
func cloneUpdateQueue(current, wip *Node) {
	if current == nil || wip.updateQueue == nil {
		return
	}
	if wip.updateQueue == current.updateQueue {
		wip.updateQueue = current.updateQueue.clone()
	}
}

// enqueue appends u to the pending list. Safe from any goroutine.
// It reports whether the caller is the goroutine folding this queue right now.
func (s *sharedQueue) enqueue(u *Update) (insideFold bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending
	if pending == nil {
		u.next = u // loop to self
	} else {
		u.next = pending.next
		pending.next = u
	}
	s.pending = u

	return s.folding != 0 && s.folding == getGID()
}

func (q *UpdateQueue) enqueue(u *Update) (insideFold bool) {
	return q.shared.enqueue(u)
}

func (q *UpdateQueue) takePending() *Update {
	q.shared.mu.Lock()
	defer q.shared.mu.Unlock()

	pending := q.shared.pending
	q.shared.pending = nil
	return pending
}

func (q *UpdateQueue) setFolding(gid int64) {
	q.shared.mu.Lock()
	q.shared.folding = gid
	q.shared.mu.Unlock()
}

// prependCaptured puts u in front of the base list.
func (q *UpdateQueue) prependCaptured(u *Update) {
	u.next = q.firstBaseUpdate
	q.firstBaseUpdate = u
	if q.lastBaseUpdate == nil {
		q.lastBaseUpdate = u
	}
}

// processUpdateQueue folds the records of n's queue whose lane is in renderLanes.
// It reports whether a force record was applied.
func (n *Node) processUpdateQueue(props any, renderLanes Lanes) (forced bool, err error) {
	q := n.updateQueue

	q.setFolding(getGID())
	defer q.setFolding(0)

	first, last := q.firstBaseUpdate, q.lastBaseUpdate

	if pending := q.takePending(); pending != nil {
		first, last = n.splicePending(first, last, pending)
	}

	if first == nil {
		return false, nil
	}

	newState := q.baseState
	newLanes := NoLanes

	var newBaseState any
	var newFirst, newLast *Update

	u := first
	for {
		if !renderLanes.Contains(u.Lane) {
			// skipped: keep it and everything after it
			c := u.clone(u.Lane)
			if newLast == nil {
				newFirst, newLast = c, c
				newBaseState = newState
			} else {
				newLast.next = c
				newLast = c
			}
			newLanes = newLanes.Merge(u.Lane)
		} else {
			if newLast != nil {
				c := u.clone(NoLane)
				newLast.next = c
				newLast = c
			}

			var f bool
			newState, f, err = n.applyUpdate(u, newState, props)
			if err != nil {
				return forced, err
			}
			forced = forced || f

			if u.Callback != nil {
				n.flags.set(Callback)
				q.effects = append(q.effects, u)
			}
		}

		u = u.next
		if u == nil {
			// records enqueued while folding are picked up in this pass
			pending := q.takePending()
			if pending == nil {
				break
			}
			u = pending.next
			first, last = n.splicePending(first, last, pending)
		}
	}

	if newLast == nil {
		newBaseState = newState
	}

	q.baseState = newBaseState
	q.firstBaseUpdate = newFirst
	q.lastBaseUpdate = newLast

	n.lanes = newLanes
	n.memoizedState = newState

	return forced, nil
}

// splicePending moves the circular pending list after the base list of n's queue
// and of its current buffer's queue, so a discarded build loses nothing.
func (n *Node) splicePending(first, last, pending *Update) (*Update, *Update) {
	lastPending := pending
	firstPending := pending.next
	lastPending.next = nil

	if last == nil {
		first = firstPending
	} else {
		last.next = firstPending
	}
	last = lastPending

	if current := n.alternate; current != nil && current.updateQueue != nil && current.updateQueue != n.updateQueue {
		cq := current.updateQueue
		if cq.lastBaseUpdate != last {
			if cq.lastBaseUpdate == nil {
				cq.firstBaseUpdate = firstPending
			} else {
				cq.lastBaseUpdate.next = firstPending
			}
			cq.lastBaseUpdate = lastPending
		}
	}

	return first, last
}

func (n *Node) applyUpdate(u *Update, prev, props any) (next any, forced bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()

	switch u.Tag {
	case ReplaceState:
		return resolvePayload(u.Payload, prev, props), false, nil
	case CaptureUpdate:
		n.flags.set(DidCapture)
		fallthrough
	case MergeState:
		partial := resolvePayload(u.Payload, prev, props)
		if partial == nil {
			return prev, false, nil
		}
		return mergeState(prev, partial), false, nil
	case ForceUpdate:
		return prev, true, nil
	}
	return prev, false, nil
}

func resolvePayload(payload, prev, props any) any {
	switch f := payload.(type) {
	case PayloadFunc:
		return f(prev, props)
	case func(prev, props any) any:
		return f(prev, props)
	}
	return payload
}

// mergeState shallow-merges map states; any other partial replaces prev.
func mergeState(prev, partial any) any {
	p, ok := prev.(Props)
	if !ok {
		return partial
	}
	q, ok := partial.(Props)
	if !ok {
		return partial
	}

	merged := make(Props, len(p)+len(q))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range q {
		merged[k] = v
	}
	return merged
}

// commitCallbacks fires the callbacks collected by the last fold.
func (q *UpdateQueue) commitCallbacks() {
	effects := q.effects
	q.effects = nil

	for _, u := range effects {
		cb := u.Callback
		u.Callback = nil
		cb()
	}
}
