// Package states holds a small set of derived states used by the realdom
// command and as worked examples of the state API.
//
//   - Size is computed bottom-up from width, height and text.
//   - Color is inherited top-down from the nearest color attribute.
//   - Accessibility combines both on the same node with role, aria-hidden,
//     tabindex and listeners.
package states

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vango-dev/realdom/pkg/mask"
	"github.com/vango-dev/realdom/pkg/state"
)

var (
	// SizeState registers Size.
	SizeState = state.Register[Size](state.Config{
		Name:      "size",
		Mask:      mask.New().WithAttrs("width", "height").WithText().Build(),
		Direction: state.ChildToParent,
	})

	// ColorState registers Color.
	ColorState = state.Register[Color](state.Config{
		Name:      "color",
		Mask:      mask.New().WithAttrs("color").Build(),
		Direction: state.ParentToChild,
	})

	// AccessibilityState registers Accessibility.
	AccessibilityState = state.Register[Accessibility](state.Config{
		Name:     "accessibility",
		Mask:     mask.New().WithAttrs("role", "aria-hidden", "tabindex").WithTag().WithListeners().Build(),
		NodeDeps: []state.TypeID{state.TypeOf[Size](), state.TypeOf[Color]()},
	})
)

// All returns every state in this package, ready for realdom.New.
func All() []*state.Descriptor {
	return []*state.Descriptor{SizeState, ColorState, AccessibilityState}
}

// Size is the box a node occupies. Children stack vertically: a node is as
// wide as its widest child and as tall as its children together. Explicit
// width and height attributes win. A text node is one line, one column per
// rune.
type Size struct {
	Width  int
	Height int
}

// Update implements state.Updater.
func (s *Size) Update(ctx *state.Context) bool {
	var next Size
	n := ctx.Node()
	if text, ok := n.Text(); ok {
		next = Size{Width: utf8.RuneCountInString(text), Height: 1}
	} else {
		for _, c := range state.Children[Size](ctx) {
			next.Width = max(next.Width, c.Width)
			next.Height += c.Height
		}
	}
	if w, ok := Int(n, "width"); ok {
		next.Width = w
	}
	if h, ok := Int(n, "height"); ok {
		next.Height = h
	}
	if next == *s {
		return false
	}
	*s = next
	return true
}

// Area returns Width*Height.
func (s Size) Area() int { return s.Width * s.Height }

// Color is the effective foreground color of a node.
type Color struct {
	Value string
}

// Update implements state.Updater.
func (c *Color) Update(ctx *state.Context) bool {
	next := ""
	if v, ok := ctx.Node().Attribute("color"); ok {
		next = strings.TrimSpace(toString(v))
	}
	if next == "" {
		if p, ok := state.Parent[Color](ctx); ok {
			next = p.Value
		}
	}
	if next == c.Value {
		return false
	}
	c.Value = next
	return true
}

// Accessibility is what an assistive technology learns about a node.
type Accessibility struct {
	Role      string
	Hidden    bool
	Focusable bool
	Visible   bool
}

var interactiveTags = map[string]string{
	"a":        "link",
	"button":   "button",
	"input":    "textbox",
	"select":   "listbox",
	"textarea": "textbox",
}

// Update implements state.Updater.
func (a *Accessibility) Update(ctx *state.Context) bool {
	n := ctx.Node()
	size := state.Sibling[Size](ctx)
	color := state.Sibling[Color](ctx)

	var next Accessibility
	tag, _ := n.Tag()
	if v, ok := n.Attribute("role"); ok {
		next.Role = toString(v)
	} else if r, ok := interactiveTags[tag]; ok {
		next.Role = r
	} else if n.HasListener("click") {
		next.Role = "button"
	}

	if v, ok := n.Attribute("aria-hidden"); ok {
		next.Hidden = truthy(v)
	}

	_, native := interactiveTags[tag]
	next.Focusable = native || len(n.Listeners()) > 0
	if t, ok := Int(n, "tabindex"); ok {
		next.Focusable = t >= 0
	}
	if next.Hidden {
		next.Focusable = false
	}

	next.Visible = !next.Hidden && size.Area() > 0 && color.Value != "transparent"

	if next == *a {
		return false
	}
	*a = next
	return true
}

// Int reads a numeric attribute. Strings are parsed; other kinds are
// reported as absent.
func Int(n state.NodeView, name string) (int, bool) {
	v, ok := n.Attribute(name)
	if !ok {
		return 0, false
	}
	switch v := v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}
