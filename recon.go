package recon

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnatoleLucet/recon/internal"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

type (
	Lane     = internal.Lane
	Lanes    = internal.Lanes
	Props    = internal.Props
	Element  = internal.Element
	Host     = internal.Host
	Snapshot = internal.Snapshot
	Status   = internal.RootStatus

	Scheduler = internal.Scheduler
	Loop      = internal.Loop

	RenderError = internal.RenderError
	FatalError  = internal.FatalError
	PanicError  = internal.PanicError
)

const (
	SyncLane       = internal.SyncLane
	InputLane      = internal.InputLane
	DefaultLane    = internal.DefaultLane
	TransitionLane = internal.TransitionLane
	IdleLane       = internal.IdleLane
)

const (
	Idle       = internal.Idle
	Building   = internal.Building
	Yielded    = internal.Yielded
	Committing = internal.Committing
)

// TextKind is the kind hosts receive when creating text instances.
const TextKind = internal.TextKind

var (
	ErrReentrantWork     = internal.ErrReentrantWork
	ErrDuplicateKey      = internal.ErrDuplicateKey
	ErrInvalidElement    = internal.ErrInvalidElement
	ErrNestedUpdateLimit = internal.ErrNestedUpdateLimit
)

// H describes a host element of the given kind.
func H(kind string, props Props, children ...*Element) *Element {
	return internal.NewHostElement(kind, props, children...)
}

// Text describes a text node.
func Text(s string) *Element {
	return internal.NewTextElement(s)
}

// Fragment groups children without a host element of its own.
func Fragment(children ...*Element) *Element {
	return internal.NewFragmentElement(children...)
}

// DiffProps returns the sorted keys set or changed in next, and removed from prev.
// Host bindings use it in ApplyPropDiff.
func DiffProps(prev, next Props) (set, removed []string) {
	return internal.DiffProps(prev, next)
}

type ComponentSpec[P, S any] struct {
	Name string

	// Initial computes the state of a new instance. Defaults to the zero S.
	Initial func(props P) S

	// Render describes what the component renders for the given props and state.
	Render func(props P, state S, self *Self[S]) (*Element, error)

	// Catch makes the component capture errors raised below it,
	// turning them into its next state.
	Catch func(err error, state S) S
}

type Component[P, S any] struct {
	component *internal.Component
}

// NewComponent defines a stateful component.
// Instances of the same *Component are updated in place across renders.
func NewComponent[P, S any](def ComponentSpec[P, S]) *Component[P, S] {
	c := &internal.Component{
		Name: def.Name,
		Render: func(props, state any, u *internal.Updater) (*internal.Element, error) {
			return def.Render(as[P](props), as[S](state), &Self[S]{u})
		},
	}

	if def.Initial != nil {
		c.InitialState = func(props any) any {
			return def.Initial(as[P](props))
		}
	}
	if def.Catch != nil {
		c.Catch = func(err error, state any) any {
			return def.Catch(err, as[S](state))
		}
	}

	return &Component[P, S]{c}
}

// New describes an instance of the component.
func (c *Component[P, S]) New(props P) *Element {
	return c.component.Element(props)
}

// Self enqueues state updates on a component instance.
// It can be kept and used after Render returned, from any goroutine.
type Self[S any] struct {
	updater *internal.Updater
}

// Set computes the next state from the state before the update.
func (s *Self[S]) Set(lane Lane, fn func(prev S) S, callbacks ...func()) {
	s.enqueue(lane, internal.ReplaceState, internal.PayloadFunc(func(prev, _ any) any {
		return fn(as[S](prev))
	}), callbacks)
}

// Replace sets the next state.
func (s *Self[S]) Replace(lane Lane, next S, callbacks ...func()) {
	s.enqueue(lane, internal.ReplaceState, next, callbacks)
}

// Merge shallow-merges partial into a Props state.
func (s *Self[S]) Merge(lane Lane, partial Props, callbacks ...func()) {
	s.enqueue(lane, internal.MergeState, partial, callbacks)
}

// Force re-renders the component without changing its state.
func (s *Self[S]) Force(lane Lane, callbacks ...func()) {
	s.enqueue(lane, internal.ForceUpdate, nil, callbacks)
}

func (s *Self[S]) enqueue(lane Lane, tag internal.UpdateTag, payload any, callbacks []func()) {
	u := internal.NewUpdate(lane, tag, payload)
	if len(callbacks) > 0 {
		u.Callback = func() {
			for _, cb := range callbacks {
				cb()
			}
		}
	}
	s.updater.Enqueue(u)
}

type Option func(*internal.RootOptions)

// WithScheduler sets the host scheduler. Defaults to the Loop of the calling goroutine.
func WithScheduler(s Scheduler) Option {
	return func(o *internal.RootOptions) { o.Scheduler = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *internal.RootOptions) { o.Logger = l }
}

// WithNestedUpdateLimit bounds the commits of a single Flush.
func WithNestedUpdateLimit(n int) Option {
	return func(o *internal.RootOptions) { o.NestedUpdateLimit = n }
}

// WithMailboxCapacity sizes the ring carrying updates from other goroutines.
func WithMailboxCapacity(n int) Option {
	return func(o *internal.RootOptions) { o.MailboxCapacity = n }
}

type Root struct {
	root *internal.Root
}

// NewRoot creates a root rendering into container through host.
func NewRoot(container any, host Host, opts ...Option) *Root {
	o := internal.RootOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return &Root{internal.NewRoot(container, host, o)}
}

// Render replaces the element of the root at the given priority.
// Callbacks run after the element is committed.
func (r *Root) Render(el *Element, lane Lane, callbacks ...func()) {
	r.root.Render(el, lane, callbacks...)
}

// Work runs one slice of pending work. See internal.Root.Work for the returned errors.
func (r *Root) Work(ctx context.Context) error { return r.root.Work(ctx) }

// Flush builds and commits until nothing is pending. It returns the first
// *FatalError; the failed updates are retried with the next update of their node.
func (r *Root) Flush(ctx context.Context) error { return r.root.Flush(ctx) }

// Batch runs fn and schedules the updates it enqueues once it returns.
func (r *Root) Batch(fn func()) { r.root.Batch(fn) }

// OnCommit registers fn to run once after the next commit.
func (r *Root) OnCommit(fn func()) { r.root.OnCommit(fn) }

// OnError registers fn to be called with every build abandoned on an uncaught error.
func (r *Root) OnError(fn func(error)) { r.root.OnError(fn) }

func (r *Root) Status() Status { return r.root.Status() }

func (r *Root) ID() string { return r.root.ID() }

// Tree returns a snapshot of the committed tree.
func (r *Root) Tree() []Snapshot { return r.root.Tree() }

// NewLoop creates a cooperative scheduler running callbacks in slices of the given length.
func NewLoop(slice time.Duration) *Loop {
	return internal.NewLoop(slice)
}

// DefaultScheduler returns the Loop of the calling goroutine.
func DefaultScheduler() *Loop {
	return internal.DefaultScheduler()
}
