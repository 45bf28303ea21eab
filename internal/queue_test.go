package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(d int) PayloadFunc {
	return func(prev, _ any) any { return prev.(int) + d }
}

func mul(f int) PayloadFunc {
	return func(prev, _ any) any { return prev.(int) * f }
}

func nodeWithState(state any) *Node {
	n := newNode(CompositeComponent, nil, "")
	n.memoizedState = state
	n.updateQueue = NewUpdateQueue(state)
	return n
}

func TestUpdateQueue(t *testing.T) {
	t.Run("folds records in enqueue order", func(t *testing.T) {
		n := nodeWithState(1)
		n.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, add(1)))
		n.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, mul(3)))

		_, err := n.processUpdateQueue(nil, DefaultLane)
		require.NoError(t, err)

		assert.Equal(t, 6, n.memoizedState)
		assert.Equal(t, NoLanes, n.lanes)
		assert.Nil(t, n.updateQueue.firstBaseUpdate)
	})

	t.Run("a skipped record keeps its successors for the rebase", func(t *testing.T) {
		n := nodeWithState(0)
		n.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, add(1)))
		n.updateQueue.enqueue(NewUpdate(SyncLane, ReplaceState, mul(2)))

		_, err := n.processUpdateQueue(nil, SyncLane)
		require.NoError(t, err)
		assert.Equal(t, 0, n.memoizedState)
		assert.Equal(t, DefaultLane, n.lanes)
		assert.Equal(t, 0, n.updateQueue.baseState)

		_, err = n.processUpdateQueue(nil, SyncLane|DefaultLane)
		require.NoError(t, err)
		assert.Equal(t, 2, n.memoizedState)
		assert.Equal(t, NoLanes, n.lanes)
		assert.Nil(t, n.updateQueue.firstBaseUpdate)
	})

	t.Run("reaches the same state whatever lanes are folded first", func(t *testing.T) {
		enqueueAll := func(n *Node) {
			n.updateQueue.enqueue(NewUpdate(IdleLane, ReplaceState, add(3)))
			n.updateQueue.enqueue(NewUpdate(SyncLane, ReplaceState, mul(2)))
			n.updateQueue.enqueue(NewUpdate(TransitionLane, ReplaceState, add(-1)))
			n.updateQueue.enqueue(NewUpdate(SyncLane, ReplaceState, mul(5)))
		}

		all := nodeWithState(1)
		enqueueAll(all)
		_, err := all.processUpdateQueue(nil, AllLanes)
		require.NoError(t, err)

		stepped := nodeWithState(1)
		enqueueAll(stepped)
		for _, lanes := range []Lanes{SyncLane, SyncLane | TransitionLane, AllLanes} {
			_, err := stepped.processUpdateQueue(nil, lanes)
			require.NoError(t, err)
		}

		assert.Equal(t, ((1+3)*2-1)*5, all.memoizedState)
		assert.Equal(t, all.memoizedState, stepped.memoizedState)
	})

	t.Run("keeps records on the committed buffer when a build is thrown away", func(t *testing.T) {
		current := nodeWithState(0)
		current.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, add(5)))

		wip := createWorkInProgress(current, nil)
		cloneUpdateQueue(current, wip)
		_, err := wip.processUpdateQueue(nil, DefaultLane)
		require.NoError(t, err)
		assert.Equal(t, 5, wip.memoizedState)
		assert.NotNil(t, current.updateQueue.firstBaseUpdate)

		// discard: start again from current
		wip = createWorkInProgress(current, nil)
		cloneUpdateQueue(current, wip)
		current.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, mul(2)))
		_, err = wip.processUpdateQueue(nil, DefaultLane)
		require.NoError(t, err)

		assert.Equal(t, 10, wip.memoizedState)
		assert.Equal(t, 0, current.memoizedState)
	})

	t.Run("merges map states and ignores nil partials", func(t *testing.T) {
		n := nodeWithState(Props{"a": 1})
		n.updateQueue.enqueue(NewUpdate(DefaultLane, MergeState, Props{"b": 2}))
		n.updateQueue.enqueue(NewUpdate(DefaultLane, MergeState, nil))
		n.updateQueue.enqueue(NewUpdate(DefaultLane, MergeState, PayloadFunc(func(prev, props any) any {
			return Props{"c": props}
		})))

		_, err := n.processUpdateQueue("from props", DefaultLane)
		require.NoError(t, err)

		assert.Equal(t, Props{"a": 1, "b": 2, "c": "from props"}, n.memoizedState)
	})

	t.Run("reports force records", func(t *testing.T) {
		n := nodeWithState(7)
		n.updateQueue.enqueue(NewUpdate(DefaultLane, ForceUpdate, nil))

		forced, err := n.processUpdateQueue(nil, DefaultLane)
		require.NoError(t, err)
		assert.True(t, forced)
		assert.Equal(t, 7, n.memoizedState)
	})

	t.Run("collects callbacks of applied records and fires them once", func(t *testing.T) {
		log := []string{}
		n := nodeWithState(0)

		applied := NewUpdate(SyncLane, ReplaceState, add(1))
		applied.Callback = func() { log = append(log, "applied") }
		skipped := NewUpdate(IdleLane, ReplaceState, add(1))
		skipped.Callback = func() { log = append(log, "skipped") }
		n.updateQueue.enqueue(skipped)
		n.updateQueue.enqueue(applied)

		_, err := n.processUpdateQueue(nil, SyncLane)
		require.NoError(t, err)
		assert.True(t, n.flags.has(Callback))

		n.updateQueue.commitCallbacks()
		n.updateQueue.commitCallbacks()
		assert.Equal(t, []string{"applied"}, log)

		// the rebased copy of the applied record does not fire again
		_, err = n.processUpdateQueue(nil, AllLanes)
		require.NoError(t, err)
		n.updateQueue.commitCallbacks()
		assert.Equal(t, []string{"applied", "skipped"}, log)
		assert.Equal(t, 2, n.memoizedState)
	})

	t.Run("turns panicking payloads into errors", func(t *testing.T) {
		n := nodeWithState(0)
		n.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, PayloadFunc(func(any, any) any {
			panic("bad payload")
		})))

		_, err := n.processUpdateQueue(nil, DefaultLane)

		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "bad payload", panicErr.Value)
	})

	t.Run("picks up records enqueued while folding", func(t *testing.T) {
		n := nodeWithState(1)
		inside := []bool{}

		n.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, PayloadFunc(func(prev, _ any) any {
			inside = append(inside, n.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, mul(10))))
			return prev.(int) + 1
		})))

		_, err := n.processUpdateQueue(nil, DefaultLane)
		require.NoError(t, err)

		assert.Equal(t, 20, n.memoizedState)
		assert.Equal(t, []bool{true}, inside)
		assert.False(t, n.updateQueue.enqueue(NewUpdate(DefaultLane, ForceUpdate, nil)))
	})

	t.Run("capture records apply before the rest of the base list", func(t *testing.T) {
		n := nodeWithState("ok")
		n.updateQueue.enqueue(NewUpdate(DefaultLane, ReplaceState, "later"))
		n.updateQueue.prependCaptured(NewUpdate(DefaultLane, CaptureUpdate, PayloadFunc(func(prev, _ any) any {
			return prev.(string) + " captured"
		})))

		_, err := n.processUpdateQueue(nil, DefaultLane)
		require.NoError(t, err)

		assert.True(t, n.flags.has(DidCapture))
		assert.Equal(t, "later", n.memoizedState)
	})
}

func TestNewUpdate(t *testing.T) {
	t.Run("keeps the most urgent lane of a set", func(t *testing.T) {
		assert.Equal(t, SyncLane, NewUpdate(SyncLane|IdleLane, ReplaceState, nil).Lane)
		assert.Equal(t, TransitionLane, NewUpdate(TransitionLane, ReplaceState, nil).Lane)
	})

	t.Run("puts lane-less records on the default lane", func(t *testing.T) {
		assert.Equal(t, DefaultLane, NewUpdate(NoLane, ForceUpdate, nil).Lane)
	})

	t.Run("a record on a lane set folds in a build of its most urgent lane", func(t *testing.T) {
		n := nodeWithState(1)
		n.updateQueue.enqueue(NewUpdate(InputLane|IdleLane, ReplaceState, add(1)))

		_, err := n.processUpdateQueue(nil, InputLane)
		require.NoError(t, err)

		assert.Equal(t, 2, n.memoizedState)
		assert.Equal(t, NoLanes, n.lanes)
	})
}
