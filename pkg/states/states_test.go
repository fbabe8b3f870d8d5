package states_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/states"
	"github.com/vango-dev/realdom/pkg/tree"
)

func newDom(t *testing.T) *realdom.Dom {
	t.Helper()
	d, err := realdom.New(states.All(), realdom.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return d
}

func add(t *testing.T, d *realdom.Dom, parent tree.NodeID, n node.NodeType) tree.NodeID {
	t.Helper()
	m := d.CreateNode(n)
	p, ok := d.GetMut(parent)
	require.True(t, ok)
	p.AddChild(m.ID())
	return m.ID()
}

func settle(t *testing.T, d *realdom.Dom) {
	t.Helper()
	d.Settle(context.Background(), nil, 32)
	require.Zero(t, d.Pending())
}

func get[T any](t *testing.T, d *realdom.Dom, id tree.NodeID) T {
	t.Helper()
	r, ok := d.Get(id)
	require.True(t, ok)
	v, ok := realdom.Component[T](r)
	require.True(t, ok)
	return v
}

func TestSize(t *testing.T) {
	d := newDom(t)
	col := add(t, d, d.RootID(), node.Element("div"))
	add(t, d, col, node.Text("hello"))
	add(t, d, col, node.Text("hi"))
	box := add(t, d, col, node.Element("div").WithAttr("width", "12").WithAttr("height", 3))
	settle(t, d)

	require.Equal(t, states.Size{Width: 12, Height: 5}, get[states.Size](t, d, col))
	require.Equal(t, states.Size{Width: 12, Height: 5}, get[states.Size](t, d, d.RootID()))

	m, _ := d.GetMut(box)
	m.Remove()
	settle(t, d)
	require.Equal(t, states.Size{Width: 5, Height: 2}, get[states.Size](t, d, d.RootID()))
}

func TestColorInheritance(t *testing.T) {
	d := newDom(t)
	outer := add(t, d, d.RootID(), node.Element("div").WithAttr("color", "red"))
	inner := add(t, d, outer, node.Element("span"))
	own := add(t, d, outer, node.Element("span").WithAttr("color", " blue "))
	settle(t, d)

	require.Equal(t, "red", get[states.Color](t, d, inner).Value)
	require.Equal(t, "blue", get[states.Color](t, d, own).Value)
	require.Equal(t, "", get[states.Color](t, d, d.RootID()).Value)

	m, _ := d.GetMut(outer)
	e, _ := m.Element()
	e.SetAttribute("color", "green")
	settle(t, d)
	require.Equal(t, "green", get[states.Color](t, d, inner).Value)
	require.Equal(t, "blue", get[states.Color](t, d, own).Value)
}

func TestAccessibility(t *testing.T) {
	d := newDom(t)
	btn := add(t, d, d.RootID(), node.Element("button"))
	add(t, d, btn, node.Text("OK"))
	clickable := add(t, d, d.RootID(), node.Element("div").WithListener("click").WithAttr("width", 4).WithAttr("height", 1))
	hidden := add(t, d, d.RootID(), node.Element("a").WithAttr("aria-hidden", "true"))
	skipped := add(t, d, d.RootID(), node.Element("input").WithAttr("tabindex", -1).WithAttr("color", "transparent"))
	settle(t, d)

	require.Equal(t, states.Accessibility{Role: "button", Focusable: true, Visible: true}, get[states.Accessibility](t, d, btn))
	require.Equal(t, states.Accessibility{Role: "button", Focusable: true, Visible: true}, get[states.Accessibility](t, d, clickable))
	require.Equal(t, states.Accessibility{Role: "link", Hidden: true}, get[states.Accessibility](t, d, hidden))
	require.Equal(t, states.Accessibility{Role: "textbox"}, get[states.Accessibility](t, d, skipped))

	// Emptying the button makes it invisible.
	r, _ := d.Get(btn)
	text, _ := d.GetMut(r.ChildIDs()[0])
	text.Remove()
	settle(t, d)
	require.False(t, get[states.Accessibility](t, d, btn).Visible)

	m, _ := d.GetMut(clickable)
	e, _ := m.Element()
	e.SetAttribute("role", "checkbox")
	settle(t, d)
	require.Equal(t, "checkbox", get[states.Accessibility](t, d, clickable).Role)
}

func TestAllResolves(t *testing.T) {
	d := newDom(t)
	require.Equal(t, [][]string{{"size", "color"}, {"accessibility"}}, d.Registry().Stages())
}
