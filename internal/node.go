package internal

import (
	"strconv"
	"strings"

	"code.hybscloud.com/atomix"
)

// WorkTag is the closed set of node kinds.
type WorkTag uint8

const (
	HostRoot WorkTag = iota
	HostComponent
	HostText
	CompositeComponent
	Fragment
)

func (t WorkTag) String() string {
	switch t {
	case HostRoot:
		return "HostRoot"
	case HostComponent:
		return "HostComponent"
	case HostText:
		return "HostText"
	case CompositeComponent:
		return "CompositeComponent"
	case Fragment:
		return "Fragment"
	}
	return "WorkTag(" + strconv.Itoa(int(t)) + ")"
}

var nodeIDs atomix.Uint32

// Node is one buffer of a logical position in the tree.
// The committed buffer and the in-progress buffer point at each other through alternate.
type Node struct {
	// shared by both buffers of the same logical node
	id uint32

	tag         WorkTag
	key         string
	elementType string
	component   *Component

	// the description this build works from, and the one last committed
	pendingProps  *Element
	memoizedProps *Element

	memoizedState any
	updateQueue   *UpdateQueue

	parent  *Node
	child   *Node
	sibling *Node
	index   int

	alternate *Node

	flags       Flags
	firstEffect *Node
	lastEffect  *Node
	nextEffect  *Node

	lanes      Lanes
	childLanes Lanes

	// host handle, or the owning *Root for a HostRoot
	stateNode any
}

func newNode(tag WorkTag, pending *Element, key string) *Node {
	return &Node{
		id:           nodeIDs.Add(1),
		tag:          tag,
		key:          key,
		pendingProps: pending,
	}
}

func newHostRootNode(root *Root) *Node {
	n := newNode(HostRoot, nil, "")
	n.stateNode = root
	n.updateQueue = NewUpdateQueue(nil)
	return n
}

func createNodeFromElement(el *Element, lanes Lanes) (*Node, error) {
	if err := el.validate(); err != nil {
		return nil, err
	}

	var n *Node
	switch el.Kind {
	case ElementHost:
		n = newNode(HostComponent, el, el.Key)
		n.elementType = el.Type
	case ElementComposite:
		n = newNode(CompositeComponent, el, el.Key)
		n.component = el.Component
	case ElementFragment:
		n = newNode(Fragment, el, el.Key)
	case ElementText:
		n = newNode(HostText, el, "")
	}
	n.lanes = lanes
	return n, nil
}

func createNodeFromText(el *Element, lanes Lanes) *Node {
	n := newNode(HostText, el, "")
	n.lanes = lanes
	return n
}

// createWorkInProgress returns the in-progress buffer of current, allocating it on first use.
func createWorkInProgress(current *Node, pending *Element) *Node {
	wip := current.alternate
	if wip == nil {
		wip = &Node{
			id:          current.id,
			tag:         current.tag,
			key:         current.key,
			elementType: current.elementType,
			component:   current.component,
			stateNode:   current.stateNode,
		}
		wip.alternate = current
		current.alternate = wip
	} else {
		wip.flags = NoFlags
		wip.resetEffects()
	}
	wip.pendingProps = pending

	wip.lanes = current.lanes
	wip.childLanes = current.childLanes

	wip.child = current.child
	wip.memoizedProps = current.memoizedProps
	wip.memoizedState = current.memoizedState
	wip.updateQueue = current.updateQueue

	wip.sibling = current.sibling
	wip.index = current.index
	wip.parent = current.parent

	return wip
}

// cloneChildNodes gives a bailed-out node its own buffers for the current children.
func cloneChildNodes(wip *Node) {
	if wip.child == nil {
		return
	}

	currentChild := wip.child
	newChild := createWorkInProgress(currentChild, currentChild.pendingProps)
	wip.child = newChild
	newChild.parent = wip

	for currentChild.sibling != nil {
		currentChild = currentChild.sibling
		newChild.sibling = createWorkInProgress(currentChild, currentChild.pendingProps)
		newChild = newChild.sibling
		newChild.parent = wip
	}
	newChild.sibling = nil
}

// sameType reports whether n can be updated in place to describe el.
func (n *Node) sameType(el *Element) bool {
	switch el.Kind {
	case ElementHost:
		return n.tag == HostComponent && n.elementType == el.Type
	case ElementComposite:
		return n.tag == CompositeComponent && n.component == el.Component
	case ElementFragment:
		return n.tag == Fragment
	case ElementText:
		return n.tag == HostText
	}
	return false
}

func (n *Node) ID() uint32 { return n.id }

func (n *Node) Tag() WorkTag { return n.tag }

func (n *Node) Key() string { return n.key }

func (n *Node) Flags() Flags { return n.flags }

func (n *Node) name() string {
	switch n.tag {
	case HostRoot:
		return "Root"
	case HostComponent:
		return n.elementType
	case HostText:
		return TextKind
	case CompositeComponent:
		return n.component.name()
	case Fragment:
		return "Fragment"
	}
	return n.tag.String()
}

// Path is the logical position of the node, root first.
func (n *Node) Path() string {
	segments := []string{}
	for cur := n; cur != nil; cur = cur.parent {
		seg := cur.name()
		if cur.tag != HostRoot {
			if cur.key != "" {
				seg += "#" + cur.key
			}
			seg += "[" + strconv.Itoa(cur.index) + "]"
		}
		segments = append(segments, seg)
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/")
}

// hostProps returns the props handed to the host for this node.
func (n *Node) hostProps() Props {
	if n.tag == HostText {
		if n.memoizedProps == nil {
			return Props{"text": ""}
		}
		return Props{"text": n.memoizedProps.Text}
	}
	if n.memoizedProps == nil {
		return nil
	}
	return n.memoizedProps.Props
}

// children returns the descriptions a host or fragment node renders.
func (n *Node) children() []*Element {
	if n.pendingProps == nil {
		return nil
	}
	return n.pendingProps.Children
}
