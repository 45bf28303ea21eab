package internal

import "fmt"

// performUnitOfWork evaluates unit and moves to the next node to work on.
func (w *workContext) performUnitOfWork(unit *Node) error {
	current := unit.alternate

	next, err := w.beginWork(current, unit)
	if err != nil {
		return w.throwException(unit, err)
	}
	unit.memoizedProps = unit.pendingProps
	w.units++

	if next == nil {
		w.completeUnitOfWork(unit)
	} else {
		w.workInProgress = next
	}
	return nil
}

func (w *workContext) beginWork(current, wip *Node) (*Node, error) {
	if current != nil && current.memoizedProps == wip.pendingProps && !wip.lanes.Includes(w.renderLanes) {
		return w.bailout(wip), nil
	}

	// the node's own lanes are recomputed by its fold
	wip.lanes = NoLanes

	switch wip.tag {
	case HostRoot:
		return w.updateHostRoot(current, wip)
	case HostComponent, Fragment:
		return w.reconcileChildren(current, wip, wip.children())
	case HostText:
		return nil, nil
	case CompositeComponent:
		return w.updateComposite(current, wip)
	}
	return nil, fmt.Errorf("recon: unknown work tag %s", wip.tag)
}

// bailout skips a node whose inputs did not change.
// Its children are only cloned when some of them have work in this build.
func (w *workContext) bailout(wip *Node) *Node {
	if !wip.childLanes.Includes(w.renderLanes) {
		return nil
	}

	cloneChildNodes(wip)
	return wip.child
}

func (w *workContext) updateHostRoot(current, wip *Node) (*Node, error) {
	cloneUpdateQueue(current, wip)

	prev := wip.memoizedState
	if _, err := wip.processUpdateQueue(nil, w.renderLanes); err != nil {
		return nil, err
	}

	el, _ := wip.memoizedState.(*Element)
	if current != nil && prev == wip.memoizedState {
		return w.bailout(wip), nil
	}
	return w.reconcileChildren(current, wip, []*Element{el})
}

func (w *workContext) updateComposite(current, wip *Node) (*Node, error) {
	comp := wip.component
	props := wip.pendingProps.Value

	if wip.updateQueue == nil {
		state, err := comp.initialState(props)
		if err != nil {
			return nil, err
		}
		wip.memoizedState = state
		wip.updateQueue = NewUpdateQueue(state)
	} else {
		cloneUpdateQueue(current, wip)
	}

	prev := wip.memoizedState
	forced, err := wip.processUpdateQueue(props, w.renderLanes)
	if err != nil {
		return nil, err
	}

	unchanged := current != nil &&
		current.memoizedProps == wip.pendingProps &&
		sameValue(prev, wip.memoizedState) &&
		!forced &&
		!wip.flags.has(DidCapture)
	if unchanged {
		return w.bailout(wip), nil
	}

	el, err := comp.render(props, wip.memoizedState, newUpdater(wip, w.root))
	if err != nil {
		return nil, err
	}
	return w.reconcileChildren(current, wip, []*Element{el})
}

func (w *workContext) reconcileChildren(current, wip *Node, children []*Element) (*Node, error) {
	var child *Node
	var err error

	if current == nil {
		child, err = mountChildNodes.reconcile(wip, nil, children, w.renderLanes)
	} else {
		child, err = reconcileChildNodes.reconcile(wip, current.child, children, w.renderLanes)
	}
	if err != nil {
		return nil, err
	}

	wip.child = child
	return child, nil
}

// completeUnitOfWork completes unit and every ancestor whose children are all done,
// threading effect lists upwards, then moves to the next sibling.
func (w *workContext) completeUnitOfWork(unit *Node) {
	completed := unit
	for {
		parent := completed.parent
		w.completeWork(completed.alternate, completed)

		if parent != nil {
			parent.appendEffectList(completed)
			if completed.flags.has(effectMask) {
				parent.appendEffect(completed)
			}
		}

		if completed.sibling != nil {
			w.workInProgress = completed.sibling
			return
		}

		if completed == w.rootNode {
			w.workInProgress = nil
			return
		}
		completed = parent
	}
}

func (w *workContext) completeWork(current, wip *Node) {
	switch wip.tag {
	case HostComponent:
		if current != nil && !propsEqual(current.memoizedProps.Props, wip.memoizedProps.Props) {
			wip.flags.set(Changed)
		}
	case HostText:
		if current != nil && current.memoizedProps.Text != wip.memoizedProps.Text {
			wip.flags.set(Changed)
		}
	}

	childLanes := NoLanes
	for child := wip.child; child != nil; child = child.sibling {
		childLanes = childLanes.Merge(child.lanes).Merge(child.childLanes)
	}
	wip.childLanes = childLanes
}
