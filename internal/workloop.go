package internal

import (
	"context"
	"errors"

	"code.hybscloud.com/iox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Work runs one slice of the root's pending work.
//
// It returns nil once the tree is committed (or there was nothing to do),
// iox.ErrWouldBlock when the build yielded and a continuation was requested,
// the context error when ctx is done, and a *FatalError when the build was
// abandoned. A yielded build resumes where it stopped on the next call.
func (r *Root) Work(ctx context.Context) error {
	return r.drive(ctx, true)
}

// Flush builds and commits until the root is idle, without yielding to the scheduler.
// It stops at the first *FatalError; updates on other nodes still commit on the
// next call.
func (r *Root) Flush(ctx context.Context) error {
	return r.drive(ctx, false)
}

func (r *Root) drive(ctx context.Context, sliced bool) error {
	gid := getGID()
	if r.working.Load() && r.workGID.Load() == gid {
		return ErrReentrantWork
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.workGID.Store(gid)
	r.working.Store(true)
	defer r.working.Store(false)

	if sliced {
		return r.performSlice(ctx, true)
	}

	for commits := 0; ; commits++ {
		r.drainInbox()
		if r.work == nil && r.pendingLanes.Empty() {
			return nil
		}
		if commits >= r.nestedUpdateLimit {
			return ErrNestedUpdateLimit
		}

		if err := r.performSlice(ctx, false); err != nil {
			return err
		}
	}
}

func (r *Root) performWork() {
	r.callbackPending.Store(false)

	err := r.Work(context.Background())
	if err != nil && !errors.Is(err, iox.ErrWouldBlock) {
		r.logger.Debug("scheduled work stopped", "root", r.id, "error", err)
	}
}

func (r *Root) prepareFreshStack(lanes Lanes) {
	r.work = newWorkContext(r, lanes)
	buildsStarted.Inc()

	r.logger.Debug("build started",
		"root", r.id,
		"lanes", lanes.String(),
	)
}

// restart throws the in-progress tree away and starts over from the committed one.
func (r *Root) restart() {
	r.interrupted = false
	if r.work == nil {
		return
	}

	discarded := r.work
	buildsDiscarded.Inc()
	r.logger.Info("build discarded for a more urgent update",
		"root", r.id,
		"lanes", discarded.renderLanes.String(),
		"pending", r.pendingLanes.String(),
		"units", discarded.units,
	)

	r.prepareFreshStack(r.pendingLanes)
}

func (r *Root) performSlice(ctx context.Context, sliced bool) error {
	r.drainInbox()
	if r.interrupted {
		r.restart()
	}

	if r.work == nil {
		lanes := r.pendingLanes.Highest()
		if lanes == NoLanes {
			return nil
		}
		r.prepareFreshStack(lanes)
	}
	w := r.work
	r.setStatus(Building)

	ctx, span := otel.Tracer("recon").Start(ctx, "recon.Work",
		trace.WithAttributes(
			attribute.String("root", r.id),
			attribute.String("lanes", w.renderLanes.String()),
		),
	)
	defer span.End()

	for !w.completed() {
		if err := w.performUnitOfWork(w.workInProgress); err != nil {
			return r.fail(span, w, err)
		}
		unitsOfWork.Inc()
		r.drainInbox()

		if w.completed() {
			break
		}

		if r.interrupted && !sliced {
			r.restart()
			w = r.work
			continue
		}

		if r.interrupted || ctx.Err() != nil || (sliced && w.shouldYield()) {
			r.setStatus(Yielded)
			yields.Inc()
			span.SetAttributes(
				attribute.Bool("yielded", true),
				attribute.Int("units", w.units),
			)
			r.ensureScheduled(r.pendingLanes.Highest())

			if err := ctx.Err(); err != nil {
				return err
			}
			return iox.ErrWouldBlock
		}
	}

	r.commitRoot(ctx, w)

	if !r.pendingLanes.Empty() {
		r.ensureScheduled(r.pendingLanes.Highest())
	}
	return nil
}

// shouldYield reports whether the scheduler wants the slice to end.
// Builds that include the sync lane run to completion.
func (w *workContext) shouldYield() bool {
	if w.renderLanes.Includes(SyncLane) {
		return false
	}
	return w.root.scheduler.ShouldYield()
}

// fail abandons the build. The committed tree is untouched. The records of the
// failed lanes stay queued but are no longer pending: they are retried with the
// next update of their node.
func (r *Root) fail(span trace.Span, w *workContext, err error) error {
	r.work = nil
	r.interrupted = false
	r.pendingLanes = r.pendingLanes.Remove(w.renderLanes)
	clearLanes(r.current, w.renderLanes)
	r.setStatus(Idle)

	buildsFailed.Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	r.logger.Error("build abandoned",
		"root", r.id,
		"lanes", w.renderLanes.String(),
		"error", err,
	)

	r.errorListeners.Notify(err)
	return err
}

// clearLanes removes lanes from the marks of n, its alternate and every
// descendant on the way to a marked node.
func clearLanes(n *Node, lanes Lanes) {
	descend := n.childLanes.Includes(lanes)
	n.lanes = n.lanes.Remove(lanes)
	n.childLanes = n.childLanes.Remove(lanes)

	if alt := n.alternate; alt != nil {
		descend = descend || alt.childLanes.Includes(lanes)
		alt.lanes = alt.lanes.Remove(lanes)
		alt.childLanes = alt.childLanes.Remove(lanes)
	}

	if !descend {
		return
	}
	for child := n.child; child != nil; child = child.sibling {
		clearLanes(child, lanes)
	}
}
