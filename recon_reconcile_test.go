package recon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/recon/internal/memhost"
)

func li(key string) *Element {
	return H("li", Props{"id": key}).WithKey(key)
}

func list(keys ...string) *Element {
	children := make([]*Element, len(keys))
	for i, k := range keys {
		if k == "" {
			continue
		}
		children[i] = li(k)
	}
	return H("ul", nil, children...)
}

func TestRender(t *testing.T) {
	t.Run("mounts a tree bottom-up and attaches it once", func(t *testing.T) {
		root, host, _ := newTestRoot()

		root.Render(H("ul", nil,
			H("li", Props{"id": "a"}, Text("A")),
			H("li", Props{"id": "b"}, Text("B")),
		), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"create ul",
			"create li#a",
			`create "A"`,
			`append li#a > "A"`,
			"append ul > li#a",
			"create li#b",
			`create "B"`,
			`append li#b > "B"`,
			"append ul > li#b",
			"append root > ul",
		}, host.Ops())
		assert.Equal(t, "<ul><li id=a>A</li><li id=b>B</li></ul>", host.String())
		assert.Equal(t, Idle, root.Status())
	})

	t.Run("updates props and text in place", func(t *testing.T) {
		root, host, _ := newTestRoot()

		root.Render(H("ul", nil,
			H("li", Props{"id": "a"}, Text("A")),
			H("li", Props{"id": "b"}, Text("B")),
		), DefaultLane)
		flush(t, root)
		host.Ops()

		root.Render(H("ul", nil,
			H("li", Props{"id": "a", "class": "x"}, Text("A2")),
			H("li", Props{"id": "b"}, Text("B")),
		), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			`update "A" text=A2`,
			"update li#a class=x",
		}, host.Ops())
		assert.Equal(t, "<ul><li class=x id=a>A2</li><li id=b>B</li></ul>", host.String())
	})

	t.Run("removes props missing from the new description", func(t *testing.T) {
		root, host, _ := newTestRoot()

		root.Render(H("input", Props{"id": "a", "disabled": true}), DefaultLane)
		flush(t, root)
		host.Ops()

		root.Render(H("input", Props{"id": "a"}), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{"update input#a -disabled"}, host.Ops())
	})

	t.Run("unmounts everything on a nil element", func(t *testing.T) {
		root, host, _ := newTestRoot()

		root.Render(list("a", "b"), DefaultLane)
		flush(t, root)
		host.Ops()

		root.Render(nil, DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{"remove root > ul"}, host.Ops())
		assert.Equal(t, "", host.String())
		assert.Empty(t, root.Tree())
	})

	t.Run("runs render callbacks after the commit", func(t *testing.T) {
		root, host, _ := newTestRoot()
		log := []string{}

		root.Render(H("p", nil, Text("hi")), DefaultLane, func() {
			log = append(log, "callback "+host.String())
		})
		root.OnCommit(func() {
			log = append(log, "commit")
		})

		flush(t, root)
		flush(t, root)

		assert.Equal(t, []string{
			"callback <p>hi</p>",
			"commit",
		}, log)
	})

	t.Run("unwraps a lone fragment", func(t *testing.T) {
		root, host, _ := newTestRoot()

		root.Render(H("ul", nil, Fragment(li("a"), li("b"))), DefaultLane)
		flush(t, root)
		host.Ops()

		root.Render(list("a", "b"), DefaultLane)
		flush(t, root)

		assert.Empty(t, host.Ops())
		assert.Equal(t, "<ul><li id=a/><li id=b/></ul>", host.String())
	})

	t.Run("places fragment children among their host siblings", func(t *testing.T) {
		root, host, _ := newTestRoot()

		root.Render(H("div", nil, H("h1", nil), Fragment(), H("p", nil)), DefaultLane)
		flush(t, root)
		host.Ops()

		root.Render(H("div", nil, H("h1", nil), Fragment(H("span", nil)), H("p", nil)), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"create span",
			"insert div > span before p",
		}, host.Ops())
		assert.Equal(t, "<div><h1/><span/><p/></div>", host.String())
	})
}

func TestReconcile(t *testing.T) {
	mount := func(t *testing.T, el *Element) (*Root, *memhost.Host) {
		root, host, _ := newTestRoot()
		root.Render(el, DefaultLane)
		flush(t, root)
		host.Ops()
		return root, host
	}

	t.Run("moves one node when two keyed siblings swap", func(t *testing.T) {
		root, host := mount(t, list("a", "b"))

		root.Render(list("b", "a"), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{"append ul > li#a"}, host.Ops())
		assert.Equal(t, "<ul><li id=b/><li id=a/></ul>", host.String())
	})

	t.Run("removes only the dropped keyed node", func(t *testing.T) {
		root, host := mount(t, list("a", "b", "c"))

		root.Render(list("a", "c"), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{"remove ul > li#b"}, host.Ops())
		assert.Equal(t, "<ul><li id=a/><li id=c/></ul>", host.String())
	})

	t.Run("creates only the added node", func(t *testing.T) {
		root, host := mount(t, list("a"))

		root.Render(list("a", "b"), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"create li#b",
			"append ul > li#b",
		}, host.Ops())
	})

	t.Run("inserts before the next stable sibling", func(t *testing.T) {
		root, host := mount(t, list("a", "c"))

		root.Render(list("a", "b", "c"), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"create li#b",
			"insert ul > li#b before li#c",
		}, host.Ops())
		assert.Equal(t, "<ul><li id=a/><li id=b/><li id=c/></ul>", host.String())
	})

	t.Run("skips nil children", func(t *testing.T) {
		root, host := mount(t, list("a", "", "c"))
		assert.Equal(t, "<ul><li id=a/><li id=c/></ul>", host.String())

		root.Render(list("a", "b", "c"), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"create li#b",
			"insert ul > li#b before li#c",
		}, host.Ops())
	})

	t.Run("moves every node but the last when a list is reversed", func(t *testing.T) {
		root, host := mount(t, list("a", "b", "c", "d"))

		root.Render(list("d", "c", "b", "a"), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"append ul > li#c",
			"append ul > li#b",
			"append ul > li#a",
		}, host.Ops())
		assert.Equal(t, "<ul><li id=d/><li id=c/><li id=b/><li id=a/></ul>", host.String())
	})

	t.Run("replaces a node whose type changed", func(t *testing.T) {
		root, host := mount(t, H("div", nil, H("span", nil)))

		root.Render(H("div", nil, H("p", nil)), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"remove div > span",
			"create p",
			"append div > p",
		}, host.Ops())
	})

	t.Run("replaces a keyed node whose type changed", func(t *testing.T) {
		root, host := mount(t, H("div", nil, H("span", nil).WithKey("x"), H("i", nil)))

		root.Render(H("div", nil, H("p", nil).WithKey("x"), H("i", nil)), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"remove div > span",
			"create p",
			"insert div > p before i",
		}, host.Ops())
	})

	t.Run("matches a single unkeyed child against the first previous child only", func(t *testing.T) {
		root, host := mount(t, H("div", nil, H("i", nil), H("b", nil)))

		root.Render(H("div", nil, H("b", nil)), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"remove div > i",
			"remove div > b",
			"create b",
			"append div > b",
		}, host.Ops())
	})

	t.Run("keeps a keyed single child found among several", func(t *testing.T) {
		root, host := mount(t, list("a", "b", "c"))

		root.Render(list("b"), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{
			"remove ul > li#a",
			"remove ul > li#c",
		}, host.Ops())
	})

	t.Run("updates text children by position", func(t *testing.T) {
		root, host := mount(t, H("p", nil, Text("a"), Text("b")))

		root.Render(H("p", nil, Text("a"), Text("c")), DefaultLane)
		flush(t, root)

		assert.Equal(t, []string{`update "b" text=c`}, host.Ops())
		assert.Equal(t, "<p>ac</p>", host.String())
	})

	t.Run("rejects duplicate keys without touching the tree", func(t *testing.T) {
		root, host := mount(t, list("a", "b"))
		before := root.Tree()

		root.Render(list("a", "a"), DefaultLane)
		err := root.Flush(context.Background())

		require.ErrorIs(t, err, ErrDuplicateKey)

		var fatal *FatalError
		require.True(t, errors.As(err, &fatal))
		assert.Equal(t, "Root/ul[0]", fatal.Path)
		assert.Equal(t, root.ID(), fatal.Root)

		assert.Empty(t, host.Ops())
		assert.Equal(t, before, root.Tree())
		assert.Equal(t, Idle, root.Status())
	})

	t.Run("rejects invalid elements", func(t *testing.T) {
		root, _, _ := newTestRoot()

		root.Render(H("div", nil, &Element{}), DefaultLane)
		err := root.Flush(context.Background())

		assert.ErrorIs(t, err, ErrInvalidElement)
	})

	t.Run("snapshots the committed tree", func(t *testing.T) {
		root, _ := mount(t, H("ul", nil, li("a"), H("li", nil, Text("x"))))

		tree := root.Tree()
		require.Len(t, tree, 1)
		assert.Equal(t, "ul", tree[0].Type)
		require.Len(t, tree[0].Children, 2)
		assert.Equal(t, "a", tree[0].Children[0].Key)
		assert.Equal(t, Props{"id": "a"}, tree[0].Children[0].Props)
		assert.Equal(t, "x", tree[0].Children[1].Children[0].Text)
	})
}
