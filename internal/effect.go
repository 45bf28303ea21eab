package internal

// Flags are the pending effects of a work node.
type Flags uint16

const (
	NoFlags    Flags = 0
	Placement  Flags = 1 << iota // node must be inserted (or moved) in the host tree
	Changed                      // host props or text changed
	Deletion                     // node and its host instances must be removed
	Callback                     // update callbacks fire after commit
	DidCapture                   // node applied a captured error in this build
)

// effectMask selects the flags that put a completed node on its parent's effect list.
const effectMask = Placement | Changed | Callback

func (f Flags) has(flag Flags) bool {
	return f&flag != 0
}

func (f *Flags) set(flag Flags) {
	*f |= flag
}

func (f *Flags) clear(flag Flags) {
	*f &^= flag
}

func (f Flags) String() string {
	if f == NoFlags {
		return "none"
	}

	s := ""
	for _, e := range []struct {
		flag Flags
		name string
	}{
		{Placement, "placement"},
		{Changed, "update"},
		{Deletion, "deletion"},
		{Callback, "callback"},
		{DidCapture, "captured"},
	} {
		if f.has(e.flag) {
			if s != "" {
				s += "|"
			}
			s += e.name
		}
	}
	return s
}

// appendEffect threads node at the tail of n's effect list.
func (n *Node) appendEffect(node *Node) {
	node.nextEffect = nil

	if n.lastEffect != nil {
		n.lastEffect.nextEffect = node
	} else {
		n.firstEffect = node
	}
	n.lastEffect = node
}

// appendEffectList splices the effect list of child after n's own.
func (n *Node) appendEffectList(child *Node) {
	if child.firstEffect == nil {
		return
	}

	if n.lastEffect != nil {
		n.lastEffect.nextEffect = child.firstEffect
	} else {
		n.firstEffect = child.firstEffect
	}
	n.lastEffect = child.lastEffect
}

// resetEffects drops the effect list collected below node.
func (n *Node) resetEffects() {
	n.firstEffect = nil
	n.lastEffect = nil
	n.nextEffect = nil
}
