// Package memhost is an in-memory host binding. It keeps a tree of instances
// and a log of every mutation it was asked to apply.
package memhost

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

const textKind = "#text"

type Instance struct {
	Kind     string
	Props    map[string]any
	Parent   *Instance
	Children []*Instance
}

func (i *Instance) label() string {
	if i.Kind == textKind {
		return fmt.Sprintf("%q", i.Props["text"])
	}
	if id, ok := i.Props["id"]; ok {
		return fmt.Sprintf("%s#%v", i.Kind, id)
	}
	return i.Kind
}

// Host implements the host binding over Instances.
type Host struct {
	mu  sync.Mutex
	ops []string

	Container *Instance
}

func New() *Host {
	return &Host{Container: &Instance{Kind: "root"}}
}

func (h *Host) log(format string, args ...any) {
	h.ops = append(h.ops, fmt.Sprintf(format, args...))
}

// Ops returns the mutations applied since the last call and forgets them.
func (h *Host) Ops() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ops := h.ops
	h.ops = nil
	if ops == nil {
		ops = []string{}
	}
	return ops
}

func (h *Host) CreateInstance(kind string, props map[string]any) any {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst := &Instance{Kind: kind, Props: copyProps(props)}
	h.log("create %s", inst.label())
	return inst
}

func (h *Host) AppendChild(parent, child any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, c := parent.(*Instance), child.(*Instance)
	detach(c)
	c.Parent = p
	p.Children = append(p.Children, c)
	h.log("append %s > %s", p.label(), c.label())
}

func (h *Host) InsertBefore(parent, child, before any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, c, b := parent.(*Instance), child.(*Instance), before.(*Instance)
	detach(c)

	i := slices.Index(p.Children, b)
	if i < 0 {
		panic(fmt.Sprintf("memhost: %s is not a child of %s", b.label(), p.label()))
	}
	c.Parent = p
	p.Children = slices.Insert(p.Children, i, c)
	h.log("insert %s > %s before %s", p.label(), c.label(), b.label())
}

func (h *Host) RemoveChild(parent, child any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, c := parent.(*Instance), child.(*Instance)
	if c.Parent != p {
		panic(fmt.Sprintf("memhost: %s is not a child of %s", c.label(), p.label()))
	}
	detach(c)
	h.log("remove %s > %s", p.label(), c.label())
}

func (h *Host) ApplyPropDiff(instance any, oldProps, newProps map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst := instance.(*Instance)
	before := inst.label()

	changes := []string{}
	for _, k := range sortedKeys(newProps) {
		if old, ok := oldProps[k]; ok && fmt.Sprint(old) == fmt.Sprint(newProps[k]) {
			continue
		}
		changes = append(changes, fmt.Sprintf("%s=%v", k, newProps[k]))
	}
	for _, k := range sortedKeys(oldProps) {
		if _, ok := newProps[k]; !ok {
			changes = append(changes, "-"+k)
		}
	}

	inst.Props = copyProps(newProps)
	h.log("update %s %s", before, strings.Join(changes, " "))
}

// String renders the container's children as markup.
func (h *Host) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	for _, c := range h.Container.Children {
		render(&b, c)
	}
	return b.String()
}

func render(b *strings.Builder, i *Instance) {
	if i.Kind == textKind {
		fmt.Fprint(b, i.Props["text"])
		return
	}

	b.WriteString("<" + i.Kind)
	for _, k := range sortedKeys(i.Props) {
		if _, ok := i.Props[k].(func()); ok {
			continue
		}
		fmt.Fprintf(b, " %s=%v", k, i.Props[k])
	}

	if len(i.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteString(">")
	for _, c := range i.Children {
		render(b, c)
	}
	b.WriteString("</" + i.Kind + ">")
}

func detach(c *Instance) {
	if c.Parent == nil {
		return
	}
	p := c.Parent
	if i := slices.Index(p.Children, c); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	c.Parent = nil
}

func copyProps(props map[string]any) map[string]any {
	cp := make(map[string]any, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return cp
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
