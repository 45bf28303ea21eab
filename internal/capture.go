package internal

import "errors"

// throwException routes an error raised while building source to the nearest
// capturing ancestor and resumes the build there.
// It returns a *FatalError when no ancestor captures it.
func (w *workContext) throwException(source *Node, cause error) error {
	var renderErr *RenderError
	if !errors.As(cause, &renderErr) {
		renderErr = &RenderError{Path: source.Path(), Cause: cause}
	}

	for n := source.parent; n != nil; n = n.parent {
		if n.tag != CompositeComponent || !n.component.captures() || n.flags.has(DidCapture) {
			continue
		}

		w.capture(n, renderErr)
		w.workInProgress = n
		return nil
	}

	return &FatalError{
		Root:  w.root.id,
		Path:  renderErr.Path,
		Cause: renderErr.Cause,
	}
}

// capture prepends a capture record to boundary's queue and throws away the work below it.
func (w *workContext) capture(boundary *Node, err *RenderError) {
	catch := boundary.component.Catch
	update := NewUpdate(w.renderLanes.Highest(), CaptureUpdate, PayloadFunc(func(prev, _ any) any {
		return catch(err, prev)
	}))

	current := boundary.alternate
	cloneUpdateQueue(current, boundary)
	if boundary.updateQueue == nil {
		boundary.updateQueue = NewUpdateQueue(boundary.memoizedState)
	}
	boundary.updateQueue.prependCaptured(update)

	boundary.lanes = boundary.lanes.Merge(update.Lane)
	boundary.child = nil
	if current != nil {
		boundary.child = current.child
	}
	boundary.resetEffects()

	w.root.logger.Debug("error captured",
		"root", w.root.id,
		"boundary", boundary.Path(),
		"source", err.Path,
		"error", err.Cause,
	)
}
