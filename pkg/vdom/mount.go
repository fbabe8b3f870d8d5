package vdom

import (
	"slices"

	rderrors "github.com/vango-dev/realdom/internal/errors"
	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/tree"
)

// Binding ties the hydration IDs of a mounted VNode tree to engine nodes.
type Binding struct {
	gen   *HIDGenerator
	nodes map[string]tree.NodeID
	hids  map[tree.NodeID]string
	roots []tree.NodeID
}

// Mount materializes v under parent and returns the binding of its nodes.
// v is annotated in place with the hydration IDs it was given. A fragment
// root mounts each of its children under parent.
func Mount(d *realdom.Dom, parent tree.NodeID, v *VNode) (*Binding, error) {
	b := &Binding{
		gen:   NewHIDGenerator(),
		nodes: make(map[string]tree.NodeID),
		hids:  make(map[tree.NodeID]string),
	}
	p, ok := d.GetMut(parent)
	if !ok {
		return nil, notFound(parent)
	}
	if err := b.claim(v, nil); err != nil {
		return nil, err
	}
	for _, id := range b.build(d, v) {
		p.AddChild(id)
		b.roots = append(b.roots, id)
	}
	return b, nil
}

// Roots returns the nodes mounted directly under the parent.
func (b *Binding) Roots() []tree.NodeID { return slices.Clone(b.roots) }

// Lookup returns the node bound to hid.
func (b *Binding) Lookup(hid string) (tree.NodeID, bool) {
	id, ok := b.nodes[hid]
	return id, ok
}

// HID returns the hydration ID bound to id.
func (b *Binding) HID(id tree.NodeID) (string, bool) {
	hid, ok := b.hids[id]
	return hid, ok
}

// Len returns the number of bound nodes.
func (b *Binding) Len() int { return len(b.nodes) }

// claim checks that the HIDs set on v are unique and not bound yet, then
// gives every other node of v a generated HID that is free. HIDs in
// released may be reused; their nodes are about to be unbound.
func (b *Binding) claim(v *VNode, released map[string]bool) *rderrors.Error {
	taken := make(map[string]bool)
	free := func(hid string) bool {
		_, bound := b.nodes[hid]
		return !taken[hid] && (!bound || released[hid])
	}

	var explicit func(n *VNode) *rderrors.Error
	explicit = func(n *VNode) *rderrors.Error {
		if n == nil {
			return nil
		}
		if n.Kind != KindFragment && n.HID != "" {
			if !free(n.HID) {
				return rderrors.New("E009").WithSubjects(n.HID).
					WithDetailf("hydration id %q is already in use", n.HID)
			}
			taken[n.HID] = true
		}
		for _, c := range n.Children {
			if err := explicit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := explicit(v); err != nil {
		return err
	}

	var generate func(n *VNode)
	generate = func(n *VNode) {
		if n == nil {
			return
		}
		if n.Kind != KindFragment && n.HID == "" {
			hid := b.gen.Next()
			for !free(hid) || released[hid] {
				hid = b.gen.Next()
			}
			n.HID = hid
			taken[hid] = true
		}
		for _, c := range n.Children {
			generate(c)
		}
	}
	generate(v)
	return nil
}

// boundUnder returns the HIDs bound to id and its subtree.
func (b *Binding) boundUnder(d *realdom.Dom, id tree.NodeID) map[string]bool {
	out := make(map[string]bool)
	var walk func(id tree.NodeID)
	walk = func(id tree.NodeID) {
		if hid, ok := b.hids[id]; ok {
			out[hid] = true
		}
		if r, ok := d.Get(id); ok {
			for _, c := range r.ChildIDs() {
				walk(c)
			}
		}
	}
	walk(id)
	return out
}

// build creates the detached engine nodes for v and returns the top-level
// ones: one node, or the children of a fragment. v must have been claimed.
func (b *Binding) build(d *realdom.Dom, v *VNode) []tree.NodeID {
	if v == nil {
		return nil
	}
	if v.Kind == KindFragment {
		var out []tree.NodeID
		for _, c := range v.Children {
			out = append(out, b.build(d, c)...)
		}
		return out
	}

	m := d.CreateNode(payload(v))
	b.bind(v.HID, m.ID())
	for _, c := range v.Children {
		for _, id := range b.build(d, c) {
			m.AddChild(id)
		}
	}
	return []tree.NodeID{m.ID()}
}

func payload(v *VNode) node.NodeType {
	switch v.Kind {
	case KindText:
		return node.Text(v.Text)
	case KindPlaceholder:
		return node.Placeholder()
	}
	t := node.Element(v.Tag)
	t.Namespace = v.Namespace
	for k, val := range v.Attributes() {
		t.Attributes[k] = val
	}
	for _, e := range v.Events() {
		t.Listeners[e] = struct{}{}
	}
	return t
}

func (b *Binding) bind(hid string, id tree.NodeID) {
	b.nodes[hid] = id
	b.hids[id] = hid
}

// unbind forgets id and its subtree.
func (b *Binding) unbind(d *realdom.Dom, id tree.NodeID) {
	if r, ok := d.Get(id); ok {
		for _, c := range r.ChildIDs() {
			b.unbind(d, c)
		}
	}
	if hid, ok := b.hids[id]; ok {
		delete(b.hids, id)
		delete(b.nodes, hid)
	}
	if i := slices.Index(b.roots, id); i >= 0 {
		b.roots = slices.Delete(b.roots, i, i+1)
	}
}

// Apply applies patches in order as engine mutations. It stops at the
// first patch that does not apply; earlier patches stay applied.
func (b *Binding) Apply(d *realdom.Dom, patches []Patch) error {
	for i, p := range patches {
		if err := b.apply(d, p); err != nil {
			return err.WithDetailf("patch %d (%s): %s", i, p.Op, err.Detail)
		}
	}
	return nil
}

func (b *Binding) apply(d *realdom.Dom, p Patch) *rderrors.Error {
	switch p.Op {
	case PatchSetText:
		m, err := b.target(d, p.HID)
		if err != nil {
			return err
		}
		t, ok := m.TextNode()
		if !ok {
			return wrongKind(p.HID, "a text node")
		}
		t.SetText(p.Value)

	case PatchSetAttr, PatchRemoveAttr, PatchSetValue, PatchSetChecked, PatchSetSelected:
		m, err := b.target(d, p.HID)
		if err != nil {
			return err
		}
		e, ok := m.Element()
		if !ok {
			return wrongKind(p.HID, "an element")
		}
		switch p.Op {
		case PatchSetAttr:
			e.SetAttribute(p.Key, p.Value)
		case PatchRemoveAttr:
			e.RemoveAttribute(p.Key)
		case PatchSetValue:
			e.SetAttribute("value", p.Value)
		case PatchSetChecked:
			e.SetAttribute("checked", p.Value == "true")
		case PatchSetSelected:
			e.SetAttribute("selected", p.Value == "true")
		}

	case PatchInsertNode:
		parent, err := b.target(d, p.ParentID)
		if err != nil {
			return err
		}
		if p.Node == nil {
			return rderrors.New("E009").WithDetail("insert without a node")
		}
		if err := b.claim(p.Node, nil); err != nil {
			return err
		}
		for off, id := range b.build(d, p.Node) {
			place(d, parent, id, p.Index+off)
		}

	case PatchRemoveNode:
		m, err := b.target(d, p.HID)
		if err != nil {
			return err
		}
		b.unbind(d, m.ID())
		m.Remove()

	case PatchMoveNode:
		m, err := b.target(d, p.HID)
		if err != nil {
			return err
		}
		parent, err := b.target(d, p.ParentID)
		if err != nil {
			return err
		}
		place(d, parent, m.ID(), p.Index)

	case PatchReplaceNode:
		m, err := b.target(d, p.HID)
		if err != nil {
			return err
		}
		if p.Node == nil {
			return rderrors.New("E009").WithDetail("replace without a node")
		}
		if err := b.claim(p.Node, b.boundUnder(d, m.ID())); err != nil {
			return err
		}
		_, hasParent := m.ParentID()
		root := slices.Index(b.roots, m.ID())
		b.unbind(d, m.ID())
		ids := b.build(d, p.Node)
		for _, id := range ids {
			if hasParent {
				n, _ := d.GetMut(id)
				n.InsertBefore(m.ID())
			}
		}
		m.Remove()
		if root >= 0 {
			b.roots = slices.Insert(b.roots, min(root, len(b.roots)), ids...)
		}

	case PatchFocus:
		// Focus lives in the client; the engine has nothing to mark.
		if _, err := b.target(d, p.HID); err != nil {
			return err
		}

	default:
		return rderrors.New("E009").WithDetailf("unknown operation 0x%02x", uint8(p.Op))
	}
	return nil
}

// place moves id to position index among parent's children.
func place(d *realdom.Dom, parent realdom.NodeMut, id tree.NodeID, index int) {
	siblings := slices.DeleteFunc(parent.ChildIDs(), func(c tree.NodeID) bool { return c == id })
	if index < 0 || index >= len(siblings) {
		parent.AddChild(id)
		return
	}
	m, _ := d.GetMut(id)
	m.InsertBefore(siblings[index])
}

func (b *Binding) target(d *realdom.Dom, hid string) (realdom.NodeMut, *rderrors.Error) {
	id, ok := b.nodes[hid]
	if !ok {
		return realdom.NodeMut{}, rderrors.New("E007").
			WithSubjects(hid).
			WithDetailf("no mounted node has hydration id %q", hid)
	}
	m, ok := d.GetMut(id)
	if !ok {
		return realdom.NodeMut{}, notFound(id)
	}
	return m, nil
}

func notFound(id tree.NodeID) *rderrors.Error {
	return rderrors.New("E007").WithDetailf("node %d does not exist", id)
}

func wrongKind(hid, want string) *rderrors.Error {
	return rderrors.New("E009").
		WithSubjects(hid).
		WithDetailf("%s is not %s", hid, want)
}
