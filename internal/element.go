package internal

import "fmt"

// Props are the attributes of a host element.
type Props = map[string]any

// ElementKind is the closed set of child descriptions.
type ElementKind uint8

const (
	elementInvalid ElementKind = iota
	ElementHost
	ElementText
	ElementFragment
	ElementComposite
)

func (k ElementKind) String() string {
	switch k {
	case ElementHost:
		return "host"
	case ElementText:
		return "text"
	case ElementFragment:
		return "fragment"
	case ElementComposite:
		return "composite"
	default:
		return "invalid"
	}
}

// Element describes one child of the desired tree.
type Element struct {
	Kind ElementKind

	// Type is the host kind of a host element.
	Type string
	// Component defines a composite element.
	Component *Component

	// Key identifies the element among its siblings. Empty means positional.
	Key string

	// Props of a host element.
	Props Props
	// Value is the props of a composite element.
	Value any
	// Text of a text element.
	Text string

	Children []*Element
}

func NewHostElement(kind string, props Props, children ...*Element) *Element {
	return &Element{Kind: ElementHost, Type: kind, Props: props, Children: children}
}

func NewTextElement(text string) *Element {
	return &Element{Kind: ElementText, Text: text}
}

func NewFragmentElement(children ...*Element) *Element {
	return &Element{Kind: ElementFragment, Children: children}
}

// WithKey returns a keyed copy of the element.
func (e *Element) WithKey(key string) *Element {
	cp := *e
	cp.Key = key
	return &cp
}

func (e *Element) validate() error {
	switch e.Kind {
	case ElementHost:
		if e.Type == "" {
			return fmt.Errorf("%w: host element without a type", ErrInvalidElement)
		}
	case ElementComposite:
		if e.Component == nil || e.Component.Render == nil {
			return fmt.Errorf("%w: composite element without a render function", ErrInvalidElement)
		}
	case ElementText, ElementFragment:
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidElement, e.Kind)
	}
	return nil
}

// name is the label of the element in node paths.
func (e *Element) name() string {
	switch e.Kind {
	case ElementHost:
		return e.Type
	case ElementText:
		return TextKind
	case ElementFragment:
		return "Fragment"
	case ElementComposite:
		return e.Component.name()
	}
	return "?"
}
