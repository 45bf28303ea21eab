package internal

import (
	"log/slog"
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/google/uuid"
)

// RootStatus is the state of a root's work loop.
type RootStatus uint32

const (
	Idle RootStatus = iota
	Building
	Yielded
	Committing
)

func (s RootStatus) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case Yielded:
		return "yielded"
	case Committing:
		return "committing"
	}
	return "unknown"
}

const DefaultNestedUpdateLimit = 50

type RootOptions struct {
	Scheduler         Scheduler
	Logger            *slog.Logger
	NestedUpdateLimit int
	MailboxCapacity   int
}

// laneMark asks the work loop to mark lane on node and its ancestors.
type laneMark struct {
	node *Node
	lane Lane
}

// Root owns one committed tree attached to a host container.
type Root struct {
	id        string
	container any
	host      Host
	scheduler Scheduler
	logger    *slog.Logger

	nestedUpdateLimit int

	// held for the duration of Work
	mu      sync.Mutex
	working atomix.Bool
	workGID atomix.Int64

	// one of the two HostRoot buffers, stable for the life of the root
	hostRoot *Node
	// pending list of the HostRoot, shared by both buffers
	rootQueue *sharedQueue
	current   *Node

	pendingLanes Lanes
	status       atomix.Uint32
	work         *workContext
	interrupted  bool

	inbox           mailbox[laneMark]
	callbackPending atomix.Bool
	batcher         *Batcher
	batchLanes      atomix.Uint32

	commitListeners *CommitQueue
	errorListeners  ErrorListeners
}

func NewRoot(container any, host Host, opts RootOptions) *Root {
	r := &Root{
		id:                uuid.NewString(),
		container:         container,
		host:              host,
		scheduler:         opts.Scheduler,
		logger:            opts.Logger,
		nestedUpdateLimit: opts.NestedUpdateLimit,
		batcher:           NewBatcher(),
		commitListeners:   NewCommitQueue(),
	}

	if r.scheduler == nil {
		r.scheduler = DefaultScheduler()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.nestedUpdateLimit <= 0 {
		r.nestedUpdateLimit = DefaultNestedUpdateLimit
	}

	r.inbox.init(opts.MailboxCapacity)
	r.hostRoot = newHostRootNode(r)
	r.rootQueue = r.hostRoot.updateQueue.shared
	r.current = r.hostRoot

	return r
}

func (r *Root) ID() string { return r.id }

func (r *Root) Status() RootStatus {
	return RootStatus(r.status.Load())
}

func (r *Root) setStatus(s RootStatus) {
	r.status.Store(uint32(s))
}

// Render replaces the element rendered by the root.
// Callbacks run once the element is committed.
func (r *Root) Render(el *Element, lane Lane, callbacks ...func()) {
	u := NewUpdate(lane, ReplaceState, el)
	if len(callbacks) > 0 {
		u.Callback = func() {
			for _, cb := range callbacks {
				cb()
			}
		}
	}
	r.ScheduleUpdate(r.hostRoot, r.rootQueue, u)
}

// ScheduleUpdate enqueues update on the pending list of node and makes sure the
// root will build it. Safe from any goroutine: node is only read on the driving
// goroutine, where its lane is marked by the next slice.
func (r *Root) ScheduleUpdate(node *Node, queue *sharedQueue, update *Update) {
	if queue.enqueue(update) {
		r.logger.Warn("update enqueued while its queue is being folded",
			"root", r.id,
			"lane", update.Lane.String(),
		)
	}

	if r.working.Load() && r.workGID.Load() == getGID() {
		r.markUpdate(node, update.Lane)
		return
	}

	r.inbox.push(laneMark{node: node, lane: update.Lane})

	if r.batcher.IsBatching() {
		r.batchLanes.Or(uint32(update.Lane))
		return
	}
	r.ensureScheduled(update.Lane)
}

// markUpdate records lane on node and every ancestor. Runs on the driving goroutine.
func (r *Root) markUpdate(node *Node, lane Lane) {
	if markUpdateLaneFromNodeToRoot(node, lane) != r {
		r.logger.Warn("update on a node that is not mounted",
			"root", r.id,
			"lane", lane.String(),
		)
		return
	}

	r.pendingLanes = r.pendingLanes.Merge(lane)

	if w := r.work; w != nil && !w.renderLanes.Includes(lane) && HigherPriority(lane, w.renderLanes.Highest()) {
		r.interrupted = true
	}
}

func markUpdateLaneFromNodeToRoot(node *Node, lane Lane) *Root {
	node.lanes = node.lanes.Merge(lane)
	if alt := node.alternate; alt != nil {
		alt.lanes = alt.lanes.Merge(lane)
	}

	n := node
	for parent := n.parent; parent != nil; parent = n.parent {
		parent.childLanes = parent.childLanes.Merge(lane)
		if alt := parent.alternate; alt != nil {
			alt.childLanes = alt.childLanes.Merge(lane)
		}
		n = parent
	}

	if n.tag != HostRoot {
		return nil
	}
	root, _ := n.stateNode.(*Root)
	return root
}

func (r *Root) drainInbox() {
	r.inbox.drain(func(m laneMark) {
		r.markUpdate(m.node, m.lane)
	})
}

func (r *Root) flushBatch() {
	if lanes := Lanes(r.batchLanes.Swap(0)); lanes != NoLanes {
		r.ensureScheduled(lanes.Highest())
	}
}

// ensureScheduled requests one continuation from the scheduler host.
func (r *Root) ensureScheduled(lane Lane) {
	if !r.callbackPending.CompareAndSwap(false, true) {
		return
	}
	r.scheduler.RequestCallback(lane, r.performWork)
}

func (r *Root) OnCommit(fn func()) {
	r.commitListeners.Enqueue(fn)
}

func (r *Root) OnError(fn func(error)) {
	r.errorListeners.Add(fn)
}

// Snapshot is a copy of one committed node.
type Snapshot struct {
	Tag      WorkTag
	Type     string
	Key      string
	Props    Props
	Text     string
	State    any
	Children []Snapshot
}

// Tree returns a snapshot of the committed children of the root.
// Call it from the goroutine driving the root.
func (r *Root) Tree() []Snapshot {
	return snapshotChildren(r.current)
}

func snapshotChildren(n *Node) []Snapshot {
	out := []Snapshot{}
	for child := n.child; child != nil; child = child.sibling {
		s := Snapshot{
			Tag:      child.tag,
			Type:     child.name(),
			Key:      child.key,
			State:    child.memoizedState,
			Children: snapshotChildren(child),
		}
		if el := child.memoizedProps; el != nil {
			s.Props = el.Props
			s.Text = el.Text
		}
		out = append(out, s)
	}
	return out
}
