package state

import (
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/vango-dev/realdom/pkg/component"
	"github.com/vango-dev/realdom/pkg/mask"
	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/tree"
)

// Context is passed to Update for one node.
type Context struct {
	run    *Run
	id     tree.NodeID
	height uint16
	isNew  bool
}

// ID returns the node being computed.
func (c *Context) ID() tree.NodeID { return c.id }

// Height returns the node height used to order the computation.
func (c *Context) Height() uint16 { return c.height }

// IsNew reports whether the state is computed on this node for the first
// time.
func (c *Context) IsNew() bool { return c.isNew }

// Values returns the side values passed to the update cycle. It is never
// nil.
func (c *Context) Values() *Values {
	if c.run.env.Values == nil {
		return &Values{}
	}
	return c.run.env.Values
}

// Node returns the node payload, restricted to the state's mask.
func (c *Context) Node() NodeView {
	t, ok := c.run.payload.Get(c.id)
	if !ok {
		panic(errors.Mark(errors.AssertionFailedf("state %s: node %d has no payload", c.run.d.name, c.id), ErrContract))
	}
	return NodeView{id: c.id, typ: t, mask: c.run.d.mask}
}

func reader[S any](c *Context, deps []TypeID, rel string) component.Reader[S] {
	id := TypeOf[S]()
	if !slices.Contains(deps, id) {
		panic(errors.Mark(errors.AssertionFailedf(
			"state %s read %s on its %s without declaring it", c.run.d.name, id, rel), ErrContract))
	}
	return c.run.readers[id].(component.Reader[S])
}

func mustGet[S any](c *Context, r component.Reader[S], id tree.NodeID, rel string) S {
	v, ok := r.Get(id)
	if !ok {
		panic(errors.Mark(errors.AssertionFailedf(
			"state %s: %s missing on %s %d", c.run.d.name, reflect.TypeFor[S](), rel, id), ErrContract))
	}
	return v
}

// Parent returns state S of the parent node. It reports false on the root.
// S must be declared in ParentDeps.
func Parent[S any](c *Context) (S, bool) {
	r := reader[S](c, c.run.d.parentDeps, "parent")
	p, ok := c.run.env.Tree.ParentAdvanced(c.id, c.run.d.enterShadow)
	if !ok {
		var zero S
		return zero, false
	}
	return mustGet(c, r, p, "parent"), true
}

// Children returns state S of every child, in child order. S must be
// declared in ChildDeps.
func Children[S any](c *Context) []S {
	r := reader[S](c, c.run.d.childDeps, "children")
	ids := c.run.env.Tree.ChildrenAdvanced(c.id, c.run.d.enterShadow)
	out := make([]S, 0, len(ids))
	for _, id := range ids {
		out = append(out, mustGet(c, r, id, "child"))
	}
	return out
}

// Sibling returns state S of the same node. S must be declared in NodeDeps.
func Sibling[S any](c *Context) S {
	r := reader[S](c, c.run.d.nodeDeps, "node")
	return mustGet(c, r, c.id, "node")
}

// NodeView is a read-only view of a node payload that only exposes what a
// state declared in its mask.
type NodeView struct {
	id   tree.NodeID
	typ  node.NodeType
	mask mask.NodeMask
}

// ID returns the node id.
func (v NodeView) ID() tree.NodeID { return v.id }

// Kind is always visible.
func (v NodeView) Kind() node.Kind { return v.typ.Kind }

// Tag returns the element tag if the mask includes it.
func (v NodeView) Tag() (string, bool) {
	if !v.mask.Tag() || !v.typ.IsElement() {
		return "", false
	}
	return v.typ.Tag, true
}

// Namespace returns the element namespace if the mask includes it.
func (v NodeView) Namespace() (string, bool) {
	if !v.mask.Namespace() || !v.typ.IsElement() {
		return "", false
	}
	return v.typ.Namespace, true
}

// Attribute returns the named attribute if the mask includes it.
func (v NodeView) Attribute(name string) (any, bool) {
	if !v.mask.Attrs().Contains(name) {
		return nil, false
	}
	return v.typ.Attribute(name)
}

// AttributeNames returns the visible attribute names, sorted.
func (v NodeView) AttributeNames() []string {
	var out []string
	for _, name := range v.typ.AttributeNames() {
		if v.mask.Attrs().Contains(name) {
			out = append(out, name)
		}
	}
	return out
}

// Text returns the text of a text node if the mask includes text.
func (v NodeView) Text() (string, bool) {
	if !v.mask.Text() || v.typ.Kind != node.KindText {
		return "", false
	}
	return v.typ.Text, true
}

// Listeners returns the listened events if the mask includes listeners.
func (v NodeView) Listeners() []string {
	if !v.mask.Listeners() {
		return nil
	}
	return v.typ.ListenerNames()
}

// HasListener reports whether the node listens for event. It is always
// false if the mask does not include listeners.
func (v NodeView) HasListener(event string) bool {
	return v.mask.Listeners() && v.typ.HasListener(event)
}
