package realdom

import (
	"github.com/cockroachdb/errors"

	"github.com/vango-dev/realdom/pkg/component"
	"github.com/vango-dev/realdom/pkg/dirty"
	"github.com/vango-dev/realdom/pkg/mask"
	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/state"
	"github.com/vango-dev/realdom/pkg/tree"
)

// NodeRef is a read-only handle to a node. Reading through a NodeRef never
// marks anything stale.
type NodeRef struct {
	id  tree.NodeID
	dom *Dom
}

// ID returns the node id.
func (r NodeRef) ID() tree.NodeID { return r.id }

// Dom returns the engine the node belongs to.
func (r NodeRef) Dom() *Dom { return r.dom }

// Type returns a copy of the node payload.
func (r NodeRef) Type() node.NodeType {
	t, ok := component.Get[node.NodeType](r.dom.store, r.id)
	if !ok {
		panic(errors.AssertionFailedf("realdom: node %d has no payload", r.id))
	}
	return t.Clone()
}

// ParentID returns the id of the parent.
func (r NodeRef) ParentID() (tree.NodeID, bool) { return r.dom.tree.ParentID(r.id) }

// Parent returns the parent.
func (r NodeRef) Parent() (NodeRef, bool) {
	p, ok := r.ParentID()
	if !ok {
		return NodeRef{}, false
	}
	return NodeRef{id: p, dom: r.dom}, true
}

// ChildIDs returns the ids of the children, in order.
func (r NodeRef) ChildIDs() []tree.NodeID { return r.dom.tree.Children(r.id) }

// ChildIDsAdvanced returns the ids of the children, following shadow trees
// if enterShadow is set.
func (r NodeRef) ChildIDsAdvanced(enterShadow bool) []tree.NodeID {
	return r.dom.tree.ChildrenAdvanced(r.id, enterShadow)
}

// Children returns the children, in order.
func (r NodeRef) Children() []NodeRef {
	ids := r.ChildIDs()
	out := make([]NodeRef, len(ids))
	for i, id := range ids {
		out[i] = NodeRef{id: id, dom: r.dom}
	}
	return out
}

// Height returns the distance from the root of the node's tree.
func (r NodeRef) Height() uint16 {
	h, _ := r.dom.tree.Height(r.id)
	return h
}

// Shadow returns the shadow tree hosted by the node.
func (r NodeRef) Shadow() (tree.ShadowTree, bool) { return r.dom.tree.Shadow(r.id) }

// Component returns the T component of the node.
func Component[T any](r NodeRef) (T, bool) {
	return component.Get[T](r.dom.store, r.id)
}

// NodeMut is a handle to a node that marks states stale on every mutation.
type NodeMut struct {
	NodeRef
}

// InsertComponent stores value as the T component of the node. If T is a
// registered state, the state is marked stale on the node.
func InsertComponent[T any](m NodeMut, value T) {
	component.Insert(m.dom.store, m.id, value)
	m.dom.markType(m.id, state.TypeOf[T]())
}

// ModifyComponent applies fn to the T component of the node in place. It
// reports false if the node has no T component.
func ModifyComponent[T any](m NodeMut, fn func(*T)) bool {
	if !component.Modify(m.dom.store, m.id, fn) {
		return false
	}
	m.dom.markType(m.id, state.TypeOf[T]())
	return true
}

func (d *Dom) markType(id tree.NodeID, t state.TypeID) {
	if p, ok := d.registry.Lookup(t); ok {
		d.tracker.MarkPass(id, p.Index())
	}
}

func (m NodeMut) modify(changed mask.NodeMask, fn func(*node.NodeType)) {
	component.Modify(m.dom.store, m.id, fn)
	m.dom.tracker.MarkMutated(m.id, changed)
}

// reparented marks the structural change of moving id under a new parent.
func (d *Dom) reparented(id, newParent tree.NodeID) {
	if old, ok := d.tree.ParentID(id); ok {
		d.tracker.MarkStructural(old, dirty.ChildChanged)
	}
	d.tracker.MarkStructural(newParent, dirty.ChildChanged)
	d.tracker.MarkStructural(id, dirty.ParentChanged)
}

// AddChild appends child to the node's children, detaching it from its
// previous parent.
func (m NodeMut) AddChild(child tree.NodeID) {
	m.dom.reparented(child, m.id)
	m.dom.tree.AddChild(m.id, child)
}

// InsertBefore places the node right before sibling. Inserting a node
// next to itself does nothing.
func (m NodeMut) InsertBefore(sibling tree.NodeID) {
	if sibling == m.id {
		return
	}
	if p, ok := m.dom.tree.ParentID(sibling); ok {
		m.dom.reparented(m.id, p)
	}
	m.dom.tree.InsertBefore(sibling, m.id)
}

// InsertAfter places the node right after sibling.
func (m NodeMut) InsertAfter(sibling tree.NodeID) {
	if sibling == m.id {
		return
	}
	if p, ok := m.dom.tree.ParentID(sibling); ok {
		m.dom.reparented(m.id, p)
	}
	m.dom.tree.InsertAfter(sibling, m.id)
}

// Remove deletes the node and its subtree. Listeners and components of
// every removed node are dropped.
func (m NodeMut) Remove() {
	d := m.dom
	if !d.tree.Contains(m.id) {
		return
	}
	if p, ok := d.tree.ParentID(m.id); ok {
		d.tracker.MarkStructural(p, dirty.ChildChanged)
	}
	d.purge(m.id)
	d.tree.Remove(m.id)
}

// purge drops the listeners and components of id's subtree, children
// first.
func (d *Dom) purge(id tree.NodeID) {
	for _, c := range d.tree.Children(id) {
		d.purge(c)
	}
	if s, ok := d.tree.Shadow(id); ok {
		for _, r := range s.Roots {
			d.purge(r)
		}
	}
	if t, ok := component.Get[node.NodeType](d.store, id); ok {
		for event := range t.Listeners {
			d.unlisten(id, event)
		}
	}
	d.store.RemoveEntity(id)
}

// AddEventListener registers the node for event. Only elements listen.
func (m NodeMut) AddEventListener(event string) {
	if !m.isElement() {
		return
	}
	m.modify(mask.New().WithListeners().Build(), func(t *node.NodeType) {
		if t.Listeners == nil {
			t.Listeners = map[string]struct{}{}
		}
		t.Listeners[event] = struct{}{}
	})
	m.dom.listen(m.id, event)
}

// RemoveEventListener unregisters the node for event.
func (m NodeMut) RemoveEventListener(event string) {
	if !m.isElement() {
		return
	}
	m.modify(mask.New().WithListeners().Build(), func(t *node.NodeType) {
		delete(t.Listeners, event)
	})
	m.dom.unlisten(m.id, event)
}

// SetType replaces the payload. Every state reading any part of the node
// becomes stale.
func (m NodeMut) SetType(t node.NodeType) {
	t = t.Clone()
	old := m.Type()
	for event := range old.Listeners {
		m.dom.unlisten(m.id, event)
	}
	m.modify(mask.All(), func(cur *node.NodeType) { *cur = t })
	for event := range t.Listeners {
		m.dom.listen(m.id, event)
	}
}

// CloneNode copies the node and its subtree; see Dom.DeepCloneNode.
func (m NodeMut) CloneNode() tree.NodeID {
	id, _ := m.dom.DeepCloneNode(m.id)
	return id
}

// AttachShadow hosts a shadow tree on the node. States that enter shadow
// trees see the roots as the node's children and the slot as the parent
// of the node's light children.
func (m NodeMut) AttachShadow(s tree.ShadowTree) {
	d := m.dom
	d.tree.CreateShadowTree(m.id, s)
	d.shadowChanged(m.id, s)
}

// DetachShadow removes the node's shadow tree. The shadow roots stay
// alive, detached.
func (m NodeMut) DetachShadow() {
	d := m.dom
	s, ok := d.tree.Shadow(m.id)
	if !ok {
		return
	}
	d.tree.RemoveShadowTree(m.id)
	d.shadowChanged(m.id, s)
}

func (d *Dom) shadowChanged(host tree.NodeID, s tree.ShadowTree) {
	d.tracker.MarkStructural(host, dirty.ChildChanged)
	for _, r := range s.Roots {
		d.tracker.MarkStructural(r, dirty.ParentChanged)
	}
	if s.Slot != tree.NoNode {
		d.tracker.MarkStructural(s.Slot, dirty.ChildChanged)
	}
	for _, c := range d.tree.Children(host) {
		d.tracker.MarkStructural(c, dirty.ParentChanged)
	}
}

func (m NodeMut) isElement() bool {
	t, ok := component.Get[node.NodeType](m.dom.store, m.id)
	return ok && t.IsElement()
}

// Element returns a mutable view of the payload if the node is an element.
func (m NodeMut) Element() (ElementMut, bool) {
	if !m.isElement() {
		return ElementMut{}, false
	}
	return ElementMut{m}, true
}

// TextNode returns a mutable view of the payload if the node is a text
// node.
func (m NodeMut) TextNode() (TextMut, bool) {
	t, ok := component.Get[node.NodeType](m.dom.store, m.id)
	if !ok || t.Kind != node.KindText {
		return TextMut{}, false
	}
	return TextMut{m}, true
}

// ElementMut mutates an element payload.
type ElementMut struct {
	m NodeMut
}

// SetAttribute sets an attribute and returns its previous value.
func (e ElementMut) SetAttribute(name string, value any) (old any, had bool) {
	e.m.modify(mask.New().WithAttrs(name).Build(), func(t *node.NodeType) {
		if t.Attributes == nil {
			t.Attributes = map[string]any{}
		}
		old, had = t.Attributes[name]
		t.Attributes[name] = value
	})
	return old, had
}

// RemoveAttribute removes an attribute and returns its previous value.
func (e ElementMut) RemoveAttribute(name string) (old any, had bool) {
	e.m.modify(mask.New().WithAttrs(name).Build(), func(t *node.NodeType) {
		old, had = t.Attributes[name]
		delete(t.Attributes, name)
	})
	return old, had
}

// Attribute returns an attribute without marking anything stale.
func (e ElementMut) Attribute(name string) (any, bool) {
	t, _ := component.Get[node.NodeType](e.m.dom.store, e.m.id)
	return t.Attribute(name)
}

// SetTag changes the element tag.
func (e ElementMut) SetTag(tag string) {
	e.m.modify(mask.New().WithTag().Build(), func(t *node.NodeType) { t.Tag = tag })
}

// SetNamespace changes the element namespace.
func (e ElementMut) SetNamespace(ns string) {
	e.m.modify(mask.New().WithNamespace().Build(), func(t *node.NodeType) { t.Namespace = ns })
}

// TextMut mutates a text payload.
type TextMut struct {
	m NodeMut
}

// Text returns the current text.
func (t TextMut) Text() string {
	n, _ := component.Get[node.NodeType](t.m.dom.store, t.m.id)
	return n.Text
}

// SetText replaces the text.
func (t TextMut) SetText(s string) {
	t.m.modify(mask.New().WithText().Build(), func(n *node.NodeType) { n.Text = s })
}

// Edit rewrites the text in place.
func (t TextMut) Edit(fn func(string) string) {
	t.m.modify(mask.New().WithText().Build(), func(n *node.NodeType) { n.Text = fn(n.Text) })
}
