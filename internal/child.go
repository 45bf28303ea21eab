package internal

import "fmt"

// childReconciler diffs the previous children of a node against new descriptions.
// Without side-effect tracking (a parent mounting for the first time) nothing is
// tagged: the whole subtree is inserted with its parent.
type childReconciler struct {
	trackSideEffects bool
}

var (
	reconcileChildNodes = childReconciler{trackSideEffects: true}
	mountChildNodes     = childReconciler{trackSideEffects: false}
)

// slot identifies a previous child by key, or by index when unkeyed.
type slot struct {
	key   string
	index int
}

func slotOf(key string, index int) slot {
	if key != "" {
		return slot{key: key, index: -1}
	}
	return slot{index: index}
}

func (r childReconciler) deleteChild(parent, child *Node) {
	if !r.trackSideEffects {
		return
	}
	child.flags = Deletion
	parent.appendEffect(child)
}

func (r childReconciler) deleteRemainingChildren(parent, first *Node) {
	if !r.trackSideEffects {
		return
	}
	for child := first; child != nil; child = child.sibling {
		r.deleteChild(parent, child)
	}
}

func mapRemainingChildren(first *Node) map[slot]*Node {
	existing := make(map[slot]*Node)
	for child := first; child != nil; child = child.sibling {
		existing[slotOf(child.key, child.index)] = child
	}
	return existing
}

func useNode(node *Node, pending *Element) *Node {
	clone := createWorkInProgress(node, pending)
	clone.index = 0
	clone.sibling = nil
	return clone
}

// placeChild records the position of n and tags it when it has to move or be inserted.
func (r childReconciler) placeChild(n *Node, lastPlacedIndex, newIndex int) int {
	n.index = newIndex
	if !r.trackSideEffects {
		return lastPlacedIndex
	}

	current := n.alternate
	if current == nil {
		n.flags.set(Placement)
		return lastPlacedIndex
	}

	oldIndex := current.index
	if oldIndex < lastPlacedIndex {
		n.flags.set(Placement)
		return lastPlacedIndex
	}
	return oldIndex
}

func (r childReconciler) placeSingleChild(n *Node) *Node {
	if r.trackSideEffects && n.alternate == nil {
		n.flags.set(Placement)
	}
	return n
}

func (r childReconciler) updateTextNode(parent, current *Node, el *Element, lanes Lanes) *Node {
	if current == nil || current.tag != HostText {
		created := createNodeFromText(el, lanes)
		created.parent = parent
		return created
	}

	existing := useNode(current, el)
	existing.parent = parent
	return existing
}

func (r childReconciler) updateElement(parent, current *Node, el *Element, lanes Lanes) (*Node, error) {
	if current != nil && current.sameType(el) {
		existing := useNode(current, el)
		existing.parent = parent
		return existing, nil
	}

	created, err := createNodeFromElement(el, lanes)
	if err != nil {
		return nil, err
	}
	created.parent = parent
	return created, nil
}

func (r childReconciler) createChild(parent *Node, el *Element, lanes Lanes) (*Node, error) {
	if el == nil {
		return nil, nil
	}

	created, err := createNodeFromElement(el, lanes)
	if err != nil {
		return nil, err
	}
	created.parent = parent
	return created, nil
}

// updateSlot updates old in place when el has the same identity, or returns nil.
func (r childReconciler) updateSlot(parent, old *Node, el *Element, lanes Lanes) (*Node, error) {
	if el == nil {
		return nil, nil
	}
	if err := el.validate(); err != nil {
		return nil, err
	}

	key := ""
	if old != nil {
		key = old.key
	}

	if el.Kind == ElementText {
		// text is never keyed
		if key != "" {
			return nil, nil
		}
		return r.updateTextNode(parent, old, el, lanes), nil
	}

	if el.Key != key {
		return nil, nil
	}
	return r.updateElement(parent, old, el, lanes)
}

func (r childReconciler) updateFromMap(existing map[slot]*Node, parent *Node, newIdx int, el *Element, lanes Lanes) (*Node, error) {
	if el == nil {
		return nil, nil
	}
	if err := el.validate(); err != nil {
		return nil, err
	}

	if el.Kind == ElementText {
		return r.updateTextNode(parent, existing[slotOf("", newIdx)], el, lanes), nil
	}
	return r.updateElement(parent, existing[slotOf(el.Key, newIdx)], el, lanes)
}

func checkKeys(children []*Element) error {
	seen := make(map[string]struct{}, len(children))
	for _, el := range children {
		if el == nil || el.Key == "" || el.Kind == ElementText {
			continue
		}
		if _, ok := seen[el.Key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, el.Key)
		}
		seen[el.Key] = struct{}{}
	}
	return nil
}

func (r childReconciler) reconcileChildrenArray(parent, currentFirst *Node, children []*Element, lanes Lanes) (*Node, error) {
	if err := checkKeys(children); err != nil {
		return nil, err
	}

	var resultingFirst, previousNew *Node
	link := func(n *Node) {
		if previousNew == nil {
			resultingFirst = n
		} else {
			previousNew.sibling = n
		}
		previousNew = n
	}

	old := currentFirst
	lastPlacedIndex := 0
	newIdx := 0

	// walk both lists while identities line up
	for ; old != nil && newIdx < len(children); newIdx++ {
		var nextOld *Node
		if old.index > newIdx {
			nextOld = old
			old = nil
		} else {
			nextOld = old.sibling
		}

		n, err := r.updateSlot(parent, old, children[newIdx], lanes)
		if err != nil {
			return nil, err
		}
		if n == nil {
			if old == nil {
				old = nextOld
			}
			break
		}

		if r.trackSideEffects && old != nil && n.alternate == nil {
			// matched the slot but not the type
			r.deleteChild(parent, old)
		}
		lastPlacedIndex = r.placeChild(n, lastPlacedIndex, newIdx)
		link(n)
		old = nextOld
	}

	if newIdx == len(children) {
		r.deleteRemainingChildren(parent, old)
		return resultingFirst, nil
	}

	if old == nil {
		// only insertions left
		for ; newIdx < len(children); newIdx++ {
			n, err := r.createChild(parent, children[newIdx], lanes)
			if err != nil {
				return nil, err
			}
			if n == nil {
				continue
			}
			lastPlacedIndex = r.placeChild(n, lastPlacedIndex, newIdx)
			link(n)
		}
		return resultingFirst, nil
	}

	remaining := old
	existing := mapRemainingChildren(remaining)

	for ; newIdx < len(children); newIdx++ {
		n, err := r.updateFromMap(existing, parent, newIdx, children[newIdx], lanes)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}

		if r.trackSideEffects && n.alternate != nil {
			delete(existing, slotOf(n.key, newIdx))
		}
		lastPlacedIndex = r.placeChild(n, lastPlacedIndex, newIdx)
		link(n)
	}

	if r.trackSideEffects {
		// previous sibling order keeps deletions deterministic
		for child := remaining; child != nil; child = child.sibling {
			if existing[slotOf(child.key, child.index)] == child {
				r.deleteChild(parent, child)
			}
		}
	}

	return resultingFirst, nil
}

func (r childReconciler) reconcileSingleElement(parent, currentFirst *Node, el *Element, lanes Lanes) (*Node, error) {
	if err := el.validate(); err != nil {
		return nil, err
	}

	for child := currentFirst; child != nil; child = child.sibling {
		if child.key == el.Key {
			if child.sameType(el) {
				r.deleteRemainingChildren(parent, child.sibling)
				existing := useNode(child, el)
				existing.parent = parent
				return existing, nil
			}

			r.deleteRemainingChildren(parent, child)
			break
		}
		r.deleteChild(parent, child)
	}

	created, err := createNodeFromElement(el, lanes)
	if err != nil {
		return nil, err
	}
	created.parent = parent
	return created, nil
}

func (r childReconciler) reconcileSingleTextNode(parent, currentFirst *Node, el *Element, lanes Lanes) *Node {
	if currentFirst != nil && currentFirst.tag == HostText {
		r.deleteRemainingChildren(parent, currentFirst.sibling)
		existing := useNode(currentFirst, el)
		existing.parent = parent
		return existing
	}

	r.deleteRemainingChildren(parent, currentFirst)
	created := createNodeFromText(el, lanes)
	created.parent = parent
	return created
}

// reconcile returns the first new child of parent for the given descriptions.
// A single description takes the single-child path, where an unkeyed description
// wins over previous siblings by position.
func (r childReconciler) reconcile(parent, currentFirst *Node, children []*Element, lanes Lanes) (*Node, error) {
	if len(children) == 1 {
		if el := children[0]; el != nil && el.Kind == ElementFragment && el.Key == "" {
			children = el.Children
		}
	}

	switch len(children) {
	case 0:
		r.deleteRemainingChildren(parent, currentFirst)
		return nil, nil
	case 1:
		el := children[0]
		if el == nil {
			r.deleteRemainingChildren(parent, currentFirst)
			return nil, nil
		}
		if el.Kind == ElementText {
			return r.placeSingleChild(r.reconcileSingleTextNode(parent, currentFirst, el, lanes)), nil
		}

		n, err := r.reconcileSingleElement(parent, currentFirst, el, lanes)
		if err != nil {
			return nil, err
		}
		return r.placeSingleChild(n), nil
	default:
		return r.reconcileChildrenArray(parent, currentFirst, children, lanes)
	}
}
