// Package mask describes which parts of a node a mutation touched or a state
// reads: attribute names, tag, namespace, text and listeners.
//
// Masks are small value types. Union and Overlaps never mutate their
// receivers.
package mask

import (
	"slices"
	"sort"
	"strings"
)

// AttributeMask selects a set of attribute names, or all attributes.
type AttributeMask struct {
	all   bool
	names []string // sorted, deduplicated
}

// AllAttributes selects every attribute.
func AllAttributes() AttributeMask {
	return AttributeMask{all: true}
}

// Attributes selects the named attributes.
func Attributes(names ...string) AttributeMask {
	if len(names) == 0 {
		return AttributeMask{}
	}
	n := slices.Clone(names)
	sort.Strings(n)
	return AttributeMask{names: slices.Compact(n)}
}

// IsAll reports whether every attribute is selected.
func (m AttributeMask) IsAll() bool { return m.all }

// IsEmpty reports whether no attribute is selected.
func (m AttributeMask) IsEmpty() bool { return !m.all && len(m.names) == 0 }

// Names returns the selected names. It is nil for an All mask.
func (m AttributeMask) Names() []string {
	if m.all {
		return nil
	}
	return slices.Clone(m.names)
}

// Contains reports whether name is selected.
func (m AttributeMask) Contains(name string) bool {
	if m.all {
		return true
	}
	_, ok := slices.BinarySearch(m.names, name)
	return ok
}

// Union returns the attributes selected by either mask.
func (m AttributeMask) Union(o AttributeMask) AttributeMask {
	if m.all || o.all {
		return AllAttributes()
	}
	merged := make([]string, 0, len(m.names)+len(o.names))
	merged = append(merged, m.names...)
	merged = append(merged, o.names...)
	return Attributes(merged...)
}

// Overlaps reports whether any attribute is selected by both masks.
func (m AttributeMask) Overlaps(o AttributeMask) bool {
	switch {
	case m.IsEmpty() || o.IsEmpty():
		return false
	case m.all || o.all:
		return true
	}
	// Both sorted: merge walk.
	i, j := 0, 0
	for i < len(m.names) && j < len(o.names) {
		switch strings.Compare(m.names[i], o.names[j]) {
		case 0:
			return true
		case -1:
			i++
		default:
			j++
		}
	}
	return false
}

// NodeMask selects parts of a node.
type NodeMask struct {
	attrs     AttributeMask
	tag       bool
	namespace bool
	text      bool
	listeners bool
}

// All selects every part of a node.
func All() NodeMask {
	return NodeMask{attrs: AllAttributes(), tag: true, namespace: true, text: true, listeners: true}
}

// Attrs returns the attribute selection.
func (m NodeMask) Attrs() AttributeMask { return m.attrs }

// Tag reports whether the tag is selected.
func (m NodeMask) Tag() bool { return m.tag }

// Namespace reports whether the namespace is selected.
func (m NodeMask) Namespace() bool { return m.namespace }

// Text reports whether text content is selected.
func (m NodeMask) Text() bool { return m.text }

// Listeners reports whether event listeners are selected.
func (m NodeMask) Listeners() bool { return m.listeners }

// IsEmpty reports whether nothing is selected.
func (m NodeMask) IsEmpty() bool {
	return m.attrs.IsEmpty() && !m.tag && !m.namespace && !m.text && !m.listeners
}

// Union returns the parts selected by either mask.
func (m NodeMask) Union(o NodeMask) NodeMask {
	return NodeMask{
		attrs:     m.attrs.Union(o.attrs),
		tag:       m.tag || o.tag,
		namespace: m.namespace || o.namespace,
		text:      m.text || o.text,
		listeners: m.listeners || o.listeners,
	}
}

// Overlaps reports whether any part is selected by both masks.
func (m NodeMask) Overlaps(o NodeMask) bool {
	return (m.tag && o.tag) ||
		(m.namespace && o.namespace) ||
		(m.text && o.text) ||
		(m.listeners && o.listeners) ||
		m.attrs.Overlaps(o.attrs)
}

// String renders the mask for logs and test output, e.g.
// "attrs=[color width] text".
func (m NodeMask) String() string {
	var parts []string
	switch {
	case m.attrs.all:
		parts = append(parts, "attrs=*")
	case len(m.attrs.names) > 0:
		parts = append(parts, "attrs=["+strings.Join(m.attrs.names, " ")+"]")
	}
	if m.tag {
		parts = append(parts, "tag")
	}
	if m.namespace {
		parts = append(parts, "namespace")
	}
	if m.text {
		parts = append(parts, "text")
	}
	if m.listeners {
		parts = append(parts, "listeners")
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, " ")
}

// Builder assembles a NodeMask.
//
//	m := mask.New().WithAttrs("width", "height").WithText().Build()
type Builder struct {
	m NodeMask
}

// New starts an empty mask.
func New() *Builder { return &Builder{} }

// WithAttrs adds the named attributes.
func (b *Builder) WithAttrs(names ...string) *Builder {
	b.m.attrs = b.m.attrs.Union(Attributes(names...))
	return b
}

// WithAllAttrs selects every attribute.
func (b *Builder) WithAllAttrs() *Builder {
	b.m.attrs = AllAttributes()
	return b
}

// WithTag selects the tag.
func (b *Builder) WithTag() *Builder {
	b.m.tag = true
	return b
}

// WithNamespace selects the namespace.
func (b *Builder) WithNamespace() *Builder {
	b.m.namespace = true
	return b
}

// WithText selects text content.
func (b *Builder) WithText() *Builder {
	b.m.text = true
	return b
}

// WithListeners selects event listeners.
func (b *Builder) WithListeners() *Builder {
	b.m.listeners = true
	return b
}

// Build returns the mask.
func (b *Builder) Build() NodeMask { return b.m }
