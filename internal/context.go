package internal

import "time"

// workContext is the state of one build of a root.
type workContext struct {
	root *Root

	// the in-progress HostRoot buffer
	rootNode *Node
	// the next unit of work, nil once the root completed
	workInProgress *Node

	renderLanes Lanes

	units     int
	startedAt time.Time
}

func newWorkContext(root *Root, lanes Lanes) *workContext {
	rootNode := createWorkInProgress(root.current, nil)

	return &workContext{
		root:           root,
		rootNode:       rootNode,
		workInProgress: rootNode,
		renderLanes:    lanes,
		startedAt:      time.Now(),
	}
}

// completed reports whether every node of the build has been completed.
func (w *workContext) completed() bool {
	return w.workInProgress == nil
}
