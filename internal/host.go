package internal

import (
	"reflect"
	"sort"
)

// TextKind is the kind passed to Host.CreateInstance for text nodes.
// Their props carry the text under the "text" key.
const TextKind = "#text"

// Host applies committed mutations to the real tree.
// Handles are opaque to the engine.
type Host interface {
	CreateInstance(kind string, props Props) any
	AppendChild(parent, child any)
	InsertBefore(parent, child, before any)
	RemoveChild(parent, child any)
	ApplyPropDiff(instance any, oldProps, newProps Props)
}

// DiffProps returns the keys whose value changed or appeared in next,
// and the keys present in prev only, both sorted.
func DiffProps(prev, next Props) (set []string, removed []string) {
	for k, v := range next {
		if old, ok := prev[k]; !ok || !sameValue(old, v) {
			set = append(set, k)
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			removed = append(removed, k)
		}
	}

	sort.Strings(set)
	sort.Strings(removed)
	return set, removed
}

func propsEqual(prev, next Props) bool {
	if len(prev) != len(next) {
		return false
	}
	set, removed := DiffProps(prev, next)
	return len(set) == 0 && len(removed) == 0
}

// sameValue compares without panicking on uncomparable dynamic values.
// Non-nil functions never compare equal.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Func {
		return false
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
