// Package node defines the payload carried by every realdom node: an element
// with attributes and listeners, a text run, or a placeholder.
package node

import (
	"maps"
	"slices"
	"sort"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement     Kind = iota // <rect>, <label>, etc.
	KindText                    // Plain text node
	KindPlaceholder             // Reserved position with no content
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindPlaceholder:
		return "Placeholder"
	default:
		return "Unknown"
	}
}

// RootTag is the tag of the element every realdom is created with.
const RootTag = "Root"

// NodeType is the payload of a node.
type NodeType struct {
	Kind       Kind
	Tag        string              // Element tag name
	Namespace  string              // Element namespace, usually empty
	Attributes map[string]any      // Element attributes
	Listeners  map[string]struct{} // Element event listeners ("click", ...)
	Text       string              // For KindText
}

// Element creates an element payload with no attributes.
func Element(tag string) NodeType {
	return NodeType{
		Kind:       KindElement,
		Tag:        tag,
		Attributes: map[string]any{},
		Listeners:  map[string]struct{}{},
	}
}

// Text creates a text payload.
func Text(content string) NodeType {
	return NodeType{Kind: KindText, Text: content}
}

// Placeholder creates a placeholder payload.
func Placeholder() NodeType {
	return NodeType{Kind: KindPlaceholder}
}

// WithAttr returns a copy of n with the attribute set.
func (n NodeType) WithAttr(name string, value any) NodeType {
	c := n.Clone()
	if c.Attributes == nil {
		c.Attributes = map[string]any{}
	}
	c.Attributes[name] = value
	return c
}

// WithListener returns a copy of n listening for event.
func (n NodeType) WithListener(event string) NodeType {
	c := n.Clone()
	if c.Listeners == nil {
		c.Listeners = map[string]struct{}{}
	}
	c.Listeners[event] = struct{}{}
	return c
}

// IsElement reports whether n is an element.
func (n NodeType) IsElement() bool { return n.Kind == KindElement }

// Attribute returns the value of the named attribute.
func (n NodeType) Attribute(name string) (any, bool) {
	v, ok := n.Attributes[name]
	return v, ok
}

// HasListener reports whether n listens for event.
func (n NodeType) HasListener(event string) bool {
	_, ok := n.Listeners[event]
	return ok
}

// ListenerNames returns the events n listens for, sorted.
func (n NodeType) ListenerNames() []string {
	names := slices.Collect(maps.Keys(n.Listeners))
	sort.Strings(names)
	return names
}

// AttributeNames returns the attribute names of n, sorted.
func (n NodeType) AttributeNames() []string {
	names := slices.Collect(maps.Keys(n.Attributes))
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of n. Attribute values are copied shallowly.
func (n NodeType) Clone() NodeType {
	c := n
	if n.Attributes != nil {
		c.Attributes = maps.Clone(n.Attributes)
	}
	if n.Listeners != nil {
		c.Listeners = maps.Clone(n.Listeners)
	}
	return c
}

// Equal reports whether two payloads have the same kind, tag, namespace,
// text, listeners and attribute values (compared with ==).
func (n NodeType) Equal(o NodeType) bool {
	if n.Kind != o.Kind || n.Tag != o.Tag || n.Namespace != o.Namespace || n.Text != o.Text {
		return false
	}
	if len(n.Attributes) != len(o.Attributes) || len(n.Listeners) != len(o.Listeners) {
		return false
	}
	for k, v := range n.Attributes {
		ov, ok := o.Attributes[k]
		if !ok || !attrEqual(v, ov) {
			return false
		}
	}
	for k := range n.Listeners {
		if _, ok := o.Listeners[k]; !ok {
			return false
		}
	}
	return true
}

func attrEqual(a, b any) (eq bool) {
	defer func() {
		// Uncomparable values (slices, maps) are never equal.
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
