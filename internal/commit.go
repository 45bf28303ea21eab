package internal

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// commitRoot applies the effect list of a completed build to the host and swaps
// the committed tree. It runs to completion.
func (r *Root) commitRoot(ctx context.Context, w *workContext) {
	finished := w.rootNode
	r.setStatus(Committing)

	_, span := otel.Tracer("recon").Start(ctx, "recon.commit",
		trace.WithAttributes(
			attribute.String("root", r.id),
			attribute.String("lanes", w.renderLanes.String()),
		),
	)
	defer span.End()

	start := time.Now()

	if finished.flags.has(effectMask) {
		finished.appendEffect(finished)
	}
	first := finished.firstEffect

	effects := 0
	for e := first; e != nil; e = e.nextEffect {
		effects++

		switch e.flags & (Placement | Changed | Deletion) {
		case Placement:
			r.commitPlacement(e)
			e.flags.clear(Placement)
			effectsApplied.WithLabelValues("placement").Inc()
		case Placement | Changed:
			r.commitPlacement(e)
			e.flags.clear(Placement)
			r.commitUpdate(e)
			effectsApplied.WithLabelValues("placement").Inc()
			effectsApplied.WithLabelValues("update").Inc()
		case Changed:
			r.commitUpdate(e)
			effectsApplied.WithLabelValues("update").Inc()
		case Deletion:
			r.commitDeletion(e)
			effectsApplied.WithLabelValues("deletion").Inc()
		}
	}

	r.current = finished
	r.pendingLanes = finished.lanes.Merge(finished.childLanes)
	r.work = nil
	r.setStatus(Idle)

	// callbacks run against the new tree and may schedule more work
	for e := first; e != nil; e = e.nextEffect {
		if e.flags.has(Callback) && e.updateQueue != nil {
			e.updateQueue.commitCallbacks()
		}
	}

	for e := first; e != nil; {
		next := e.nextEffect
		e.nextEffect = nil
		e = next
	}
	finished.resetEffects()

	elapsed := time.Since(start)
	commitDuration.Observe(elapsed.Seconds())
	buildsCommitted.Inc()
	span.SetAttributes(
		attribute.Int("effects", effects),
		attribute.Int("units", w.units),
	)

	r.logger.Debug("build committed",
		"root", r.id,
		"lanes", w.renderLanes.String(),
		"units", w.units,
		"effects", effects,
		"took", elapsed,
	)

	r.commitListeners.Run()
}

func isHostParent(n *Node) bool {
	return n.tag == HostComponent || n.tag == HostRoot
}

// hostParentOf returns the handle that host instances below n are attached to.
func (r *Root) hostParentOf(n *Node) any {
	for p := n.parent; p != nil; p = p.parent {
		switch p.tag {
		case HostComponent:
			return p.stateNode
		case HostRoot:
			return r.container
		}
	}
	return r.container
}

// hostSiblingOf returns the handle of the first host instance after n that
// is already in place, or nil to append.
func hostSiblingOf(n *Node) any {
	node := n
siblings:
	for {
		for node.sibling == nil {
			if node.parent == nil || isHostParent(node.parent) {
				return nil
			}
			node = node.parent
		}
		node.sibling.parent = node.parent
		node = node.sibling

		for node.tag != HostComponent && node.tag != HostText {
			// composites and fragments: look at their first host descendant
			if node.flags.has(Placement) || node.child == nil {
				continue siblings
			}
			node.child.parent = node
			node = node.child
		}

		if !node.flags.has(Placement) {
			return node.stateNode
		}
	}
}

func (r *Root) commitPlacement(n *Node) {
	parent := r.hostParentOf(n)
	before := hostSiblingOf(n)
	r.insertOrAppend(n, before, parent)
}

func (r *Root) insertOrAppend(n *Node, before, parent any) {
	if n.tag == HostComponent || n.tag == HostText {
		if n.stateNode == nil {
			r.materialize(n)
		}
		if before != nil {
			r.host.InsertBefore(parent, n.stateNode, before)
		} else {
			r.host.AppendChild(parent, n.stateNode)
		}
		return
	}

	for child := n.child; child != nil; child = child.sibling {
		r.insertOrAppend(child, before, parent)
	}
}

// materialize creates the host instances of a subtree inserted for the first time.
func (r *Root) materialize(n *Node) {
	switch n.tag {
	case HostText:
		n.stateNode = r.host.CreateInstance(TextKind, n.hostProps())
	case HostComponent:
		n.stateNode = r.host.CreateInstance(n.elementType, n.hostProps())
		r.appendAllChildren(n.stateNode, n)
	}
}

func (r *Root) appendAllChildren(parent any, n *Node) {
	for child := n.child; child != nil; child = child.sibling {
		switch child.tag {
		case HostComponent, HostText:
			if child.stateNode == nil {
				r.materialize(child)
			}
			r.host.AppendChild(parent, child.stateNode)
		default:
			r.appendAllChildren(parent, child)
		}
	}
}

func (r *Root) commitUpdate(n *Node) {
	current := n.alternate
	if current == nil || n.stateNode == nil {
		return
	}
	r.host.ApplyPropDiff(n.stateNode, current.hostProps(), n.hostProps())
}

func (r *Root) commitDeletion(n *Node) {
	parent := r.hostParentOf(n)
	r.removeHostChildren(n, parent)

	n.parent = nil
	if alt := n.alternate; alt != nil {
		alt.parent = nil
	}
}

func (r *Root) removeHostChildren(n *Node, parent any) {
	switch n.tag {
	case HostComponent, HostText:
		if n.stateNode != nil {
			r.host.RemoveChild(parent, n.stateNode)
		}
	default:
		for child := n.child; child != nil; child = child.sibling {
			r.removeHostChildren(child, parent)
		}
	}
}
