package internal

// RenderFunc evaluates a composite into the single description it renders.
// Returning a Fragment renders several children; nil renders nothing.
type RenderFunc func(props, state any, self *Updater) (*Element, error)

// Component is the definition shared by every composite node of the same type.
// Nodes compare components by pointer.
type Component struct {
	Name   string
	Render RenderFunc

	// InitialState computes the state of a freshly mounted node.
	InitialState func(props any) any

	// Catch turns an error raised below the component into its next state.
	// Components without Catch let errors through to their ancestors.
	Catch func(err error, state any) any
}

// Element describes an instance of c with the given props.
func (c *Component) Element(props any) *Element {
	return &Element{Kind: ElementComposite, Component: c, Value: props}
}

func (c *Component) captures() bool {
	return c.Catch != nil
}

func (c *Component) name() string {
	if c.Name == "" {
		return "Component"
	}
	return c.Name
}

func (c *Component) render(props, state any, self *Updater) (el *Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()

	return c.Render(props, state, self)
}

func (c *Component) initialState(props any) (state any, err error) {
	if c.InitialState == nil {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()

	return c.InitialState(props), nil
}

// Updater enqueues updates on the node a composite was evaluated for.
// It stays valid after the build that created it: both buffers share one
// pending list, and the updater never reads the node's fields.
type Updater struct {
	node  *Node
	queue *sharedQueue
	root  *Root
}

func newUpdater(n *Node, root *Root) *Updater {
	return &Updater{node: n, queue: n.updateQueue.shared, root: root}
}

// Enqueue is safe from any goroutine.
func (u *Updater) Enqueue(update *Update) {
	u.root.ScheduleUpdate(u.node, u.queue, update)
}

// Root returns the root the node is mounted in.
func (u *Updater) Root() *Root {
	return u.root
}
