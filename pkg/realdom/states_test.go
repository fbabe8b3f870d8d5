package realdom

import (
	"slices"
	"sync"

	"github.com/vango-dev/realdom/pkg/mask"
	"github.com/vango-dev/realdom/pkg/state"
	"github.com/vango-dev/realdom/pkg/tree"
)

type call struct {
	pass string
	id   tree.NodeID
}

// callLog is passed to cycles through state.Values and records every
// computation.
type callLog struct {
	mu    sync.Mutex
	calls []call
}

func (l *callLog) add(pass string, id tree.NodeID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call{pass, id})
}

func (l *callLog) of(pass string) []tree.NodeID {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []tree.NodeID
	for _, c := range l.calls {
		if c.pass == pass {
			out = append(out, c.id)
		}
	}
	return out
}

func (l *callLog) ran(pass string, id tree.NodeID) bool {
	return slices.Contains(l.of(pass), id)
}

func (l *callLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

func logCall(ctx *state.Context, pass string) {
	if l, ok := state.Lookup[*callLog](ctx.Values()); ok {
		l.add(pass, ctx.ID())
	}
}

func intAttr(v state.NodeView, name string) int {
	a, _ := v.Attribute(name)
	i, _ := a.(int)
	return i
}

// layout sums the width attribute over the subtree.
type layout struct {
	Width int
}

func (l *layout) Update(ctx *state.Context) bool {
	logCall(ctx, "layout")
	w := intAttr(ctx.Node(), "width")
	for _, c := range state.Children[layout](ctx) {
		w += c.Width
	}
	changed := w != l.Width
	l.Width = w
	return changed
}

// color inherits the color attribute from the nearest ancestor setting it.
type color struct {
	Value string
}

func (c *color) Update(ctx *state.Context) bool {
	logCall(ctx, "color")
	v, _ := ctx.Node().Attribute("color")
	next, _ := v.(string)
	if next == "" {
		if p, ok := state.Parent[color](ctx); ok {
			next = p.Value
		}
	}
	changed := next != c.Value
	c.Value = next
	return changed
}

// theme reads the theme attribute of its own node only.
type theme struct {
	Name string
}

func (t *theme) Update(ctx *state.Context) bool {
	logCall(ctx, "theme")
	v, _ := ctx.Node().Attribute("theme")
	next, _ := v.(string)
	changed := next != t.Name
	t.Name = next
	return changed
}

// themed copies the theme of the parent.
type themed struct {
	Parent string
}

func (t *themed) Update(ctx *state.Context) bool {
	logCall(ctx, "themed")
	next := ""
	if p, ok := state.Parent[theme](ctx); ok {
		next = p.Name
	}
	changed := next != t.Parent
	t.Parent = next
	return changed
}

// summary combines layout and color on the same node.
type summary struct {
	Text string
}

func (s *summary) Update(ctx *state.Context) bool {
	logCall(ctx, "summary")
	l := state.Sibling[layout](ctx)
	c := state.Sibling[color](ctx)
	next := c.Value
	if l.Width > 0 {
		next += "+wide"
	}
	changed := next != s.Text
	s.Text = next
	return changed
}

// explosive panics on nodes with a boom attribute.
type explosive struct{}

func (*explosive) Update(ctx *state.Context) bool {
	if _, ok := ctx.Node().Attribute("boom"); ok {
		panic("boom")
	}
	return false
}

// slotDepth counts ancestors along the shadow-aware parent chain.
type slotDepth struct {
	Depth int
}

func (s *slotDepth) Update(ctx *state.Context) bool {
	next := 0
	if p, ok := state.Parent[slotDepth](ctx); ok {
		next = p.Depth + 1
	}
	changed := next != s.Depth
	s.Depth = next
	return changed
}

func testPasses() []*state.Descriptor {
	return []*state.Descriptor{
		state.Register[layout](state.Config{
			Name:      "layout",
			Mask:      mask.New().WithAttrs("width").Build(),
			Direction: state.ChildToParent,
		}),
		state.Register[color](state.Config{
			Name:      "color",
			Mask:      mask.New().WithAttrs("color").Build(),
			Direction: state.ParentToChild,
		}),
		state.Register[theme](state.Config{
			Name: "theme",
			Mask: mask.New().WithAttrs("theme").Build(),
		}),
		state.Register[themed](state.Config{
			Name:       "themed",
			ParentDeps: []state.TypeID{state.TypeOf[theme]()},
		}),
		state.Register[summary](state.Config{
			Name:     "summary",
			NodeDeps: []state.TypeID{state.TypeOf[layout](), state.TypeOf[color]()},
		}),
	}
}
