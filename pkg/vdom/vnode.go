package vdom

import (
	"sort"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement     VKind = iota // <div>, <button>, etc.
	KindText                     // Plain text node
	KindFragment                 // Grouping without wrapper
	KindPlaceholder              // Reserved position with no content
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindPlaceholder:
		return "Placeholder"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node.
type VNode struct {
	Kind      VKind    // Node type
	Tag       string   // Element tag name (e.g., "div")
	Namespace string   // Element namespace, empty for HTML
	Props     Props    // Attributes and event handlers
	Children  []*VNode // Child nodes
	Key       string   // Reconciliation key
	Text      string   // For KindText
	HID       string   // Hydration ID (assigned on mount)
}

// Props holds attributes and event handlers. Event handlers are stored
// under "on" + event name.
type Props map[string]any

// IsInteractive returns true if this node has event handlers.
func (v *VNode) IsInteractive() bool {
	return len(v.Events()) > 0
}

// Events returns the names of the events the node handles, sorted and
// without the "on" prefix.
func (v *VNode) Events() []string {
	if v == nil || v.Kind != KindElement {
		return nil
	}
	var events []string
	for key := range v.Props {
		if isEventKey(key) {
			events = append(events, key[2:])
		}
	}
	sort.Strings(events)
	return events
}

// Attributes returns the props that are neither event handlers nor nil.
func (v *VNode) Attributes() map[string]any {
	attrs := make(map[string]any)
	if v == nil {
		return attrs
	}
	for key, val := range v.Props {
		if val == nil || isEventKey(key) || key == "key" {
			continue
		}
		attrs[key] = val
	}
	return attrs
}

func isEventKey(key string) bool {
	return len(key) > 2 && strings.HasPrefix(key, "on")
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // Function to call; may be nil
}
