package tree

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"
)

// NodeID identifies a node for its whole lifetime. IDs are never reused.
type NodeID uint64

// NoNode is the zero NodeID. It is never allocated.
const NoNode NodeID = 0

// ShadowTree describes nodes rendered in place of a host's light children.
// Roots replace the host's children when traversing with enterShadow. Slot,
// if set, is the node under which the host's light children are rendered.
type ShadowTree struct {
	Roots []NodeID
	Slot  NodeID
}

type entry struct {
	parent   NodeID
	children []NodeID
	height   uint16

	shadow *ShadowTree
	// shadowHost is set on shadow roots and points at the host.
	shadowHost NodeID
	// slotHost is set on slots and points at the host whose light children
	// render under the slot.
	slotHost NodeID
}

// Tree tracks parent/child relations and node heights.
//
// Tree is not safe for concurrent mutation. Concurrent reads are safe while
// no mutation is in progress.
type Tree struct {
	nodes swiss.Map[NodeID, *entry]
}

// New creates an empty tree.
func New() *Tree {
	t := &Tree{}
	t.nodes.Init(64)
	return t
}

// CreateNode adds a detached node with height 0.
func (t *Tree) CreateNode(id NodeID) {
	t.nodes.Put(id, &entry{})
}

// Contains reports whether id is in the tree.
func (t *Tree) Contains(id NodeID) bool {
	_, ok := t.nodes.Get(id)
	return ok
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return t.nodes.Len()
}

// Height returns the distance of id from its root.
func (t *Tree) Height(id NodeID) (uint16, bool) {
	e, ok := t.nodes.Get(id)
	if !ok {
		return 0, false
	}
	return e.height, true
}

// ParentID returns the parent of id. Shadow roots report their host.
func (t *Tree) ParentID(id NodeID) (NodeID, bool) {
	e, ok := t.nodes.Get(id)
	if !ok || e.parent == NoNode {
		return NoNode, false
	}
	return e.parent, true
}

// Children returns a copy of the light children of id, in order.
func (t *Tree) Children(id NodeID) []NodeID {
	e, ok := t.nodes.Get(id)
	if !ok {
		return nil
	}
	return slices.Clone(e.children)
}

// ChildrenAdvanced returns the children of id. If enterShadow is true and id
// hosts a shadow tree, the shadow roots are returned instead; if id is a slot,
// the light children of its host are returned.
func (t *Tree) ChildrenAdvanced(id NodeID, enterShadow bool) []NodeID {
	e, ok := t.nodes.Get(id)
	if !ok {
		return nil
	}
	if enterShadow {
		if e.shadow != nil {
			return slices.Clone(e.shadow.Roots)
		}
		if e.slotHost != NoNode {
			return t.Children(e.slotHost)
		}
	}
	return slices.Clone(e.children)
}

// ParentAdvanced is the inverse of ChildrenAdvanced. With enterShadow, a
// light child of a host that has a slot reports the slot as its parent.
func (t *Tree) ParentAdvanced(id NodeID, enterShadow bool) (NodeID, bool) {
	e, ok := t.nodes.Get(id)
	if !ok || e.parent == NoNode {
		return NoNode, false
	}
	if enterShadow && e.shadowHost == NoNode {
		if p, ok := t.nodes.Get(e.parent); ok && p.shadow != nil && p.shadow.Slot != NoNode {
			return p.shadow.Slot, true
		}
	}
	return e.parent, true
}

// Shadow returns the shadow tree hosted by id, if any.
func (t *Tree) Shadow(id NodeID) (ShadowTree, bool) {
	e, ok := t.nodes.Get(id)
	if !ok || e.shadow == nil {
		return ShadowTree{}, false
	}
	return ShadowTree{Roots: slices.Clone(e.shadow.Roots), Slot: e.shadow.Slot}, true
}

// AddChild appends child to the children of parent, detaching it from its
// previous parent first.
func (t *Tree) AddChild(parent, child NodeID) {
	p := t.mustGet(parent)
	c := t.mustGet(child)
	if t.isAncestor(child, parent) {
		panic(errors.AssertionFailedf("tree: adding %d under %d would create a cycle", child, parent))
	}
	t.detach(child, c)
	p.children = append(p.children, child)
	c.parent = parent
	t.setHeight(child, p.height+1)
}

// InsertBefore inserts id as the sibling immediately before old.
func (t *Tree) InsertBefore(old, id NodeID) {
	t.insertAt(old, id, 0)
}

// InsertAfter inserts id as the sibling immediately after old.
func (t *Tree) InsertAfter(old, id NodeID) {
	t.insertAt(old, id, 1)
}

// insertAt places id next to old. When old is a shadow root, id becomes a
// shadow root of the same host.
func (t *Tree) insertAt(old, id NodeID, offset int) {
	o := t.mustGet(old)
	n := t.mustGet(id)
	if old == id {
		return
	}
	if o.parent == NoNode {
		panic(errors.AssertionFailedf("tree: cannot insert a sibling of detached node %d", old))
	}
	if t.isAncestor(id, o.parent) {
		panic(errors.AssertionFailedf("tree: inserting %d next to %d would create a cycle", id, old))
	}
	parent := o.parent
	p := t.mustGet(parent)
	siblings := &p.children
	if o.shadowHost != NoNode {
		if p.shadow == nil {
			panic(errors.AssertionFailedf("tree: shadow root %d has no shadow tree on %d", old, parent))
		}
		siblings = &p.shadow.Roots
	}
	if !slices.Contains(*siblings, old) {
		panic(errors.AssertionFailedf("tree: %d is not listed under its parent %d", old, parent))
	}

	t.detach(id, n)
	idx := slices.Index(*siblings, old)
	*siblings = slices.Insert(*siblings, idx+offset, id)
	n.parent = parent
	n.shadowHost = o.shadowHost
	t.setHeight(id, p.height+1)
}

// Remove deletes id and all of its descendants, including hosted shadow
// trees. It returns the removed ids in post-order.
func (t *Tree) Remove(id NodeID) []NodeID {
	e, ok := t.nodes.Get(id)
	if !ok {
		return nil
	}
	t.detach(id, e)
	var removed []NodeID
	t.removeRec(id, &removed)
	return removed
}

func (t *Tree) removeRec(id NodeID, removed *[]NodeID) {
	e, ok := t.nodes.Get(id)
	if !ok {
		return
	}
	for _, c := range e.children {
		t.removeRec(c, removed)
	}
	if e.shadow != nil {
		for _, r := range e.shadow.Roots {
			t.removeRec(r, removed)
		}
	}
	if e.slotHost != NoNode {
		if h, ok := t.nodes.Get(e.slotHost); ok && h.shadow != nil {
			h.shadow.Slot = NoNode
		}
	}
	t.nodes.Delete(id)
	*removed = append(*removed, id)
}

// CreateShadowTree attaches a shadow tree to host. The roots are detached
// from any previous parent and placed one level below host.
func (t *Tree) CreateShadowTree(host NodeID, shadow ShadowTree) {
	h := t.mustGet(host)
	if h.shadow != nil {
		t.RemoveShadowTree(host)
	}
	st := &ShadowTree{Roots: slices.Clone(shadow.Roots), Slot: shadow.Slot}
	h.shadow = st
	for _, r := range st.Roots {
		re := t.mustGet(r)
		t.detach(r, re)
		re.parent = host
		re.shadowHost = host
		t.setHeight(r, h.height+1)
	}
	if st.Slot != NoNode {
		t.mustGet(st.Slot).slotHost = host
	}
}

// RemoveShadowTree detaches the shadow tree of host. The shadow roots stay in
// the tree as detached nodes.
func (t *Tree) RemoveShadowTree(host NodeID) {
	h := t.mustGet(host)
	if h.shadow == nil {
		return
	}
	if s, ok := t.nodes.Get(h.shadow.Slot); ok {
		s.slotHost = NoNode
	}
	for _, r := range h.shadow.Roots {
		if re, ok := t.nodes.Get(r); ok {
			re.parent = NoNode
			re.shadowHost = NoNode
			t.setHeight(r, 0)
		}
	}
	h.shadow = nil
}

// detach unlinks id from its parent without removing it.
func (t *Tree) detach(id NodeID, e *entry) {
	if e.parent == NoNode {
		return
	}
	p, ok := t.nodes.Get(e.parent)
	if ok {
		if e.shadowHost != NoNode && p.shadow != nil {
			p.shadow.Roots = slices.DeleteFunc(p.shadow.Roots, func(r NodeID) bool { return r == id })
		} else {
			p.children = slices.DeleteFunc(p.children, func(c NodeID) bool { return c == id })
		}
	}
	e.parent = NoNode
	e.shadowHost = NoNode
	t.setHeight(id, 0)
}

// setHeight sets the height of id and propagates to its subtree.
func (t *Tree) setHeight(id NodeID, height uint16) {
	e, ok := t.nodes.Get(id)
	if !ok {
		return
	}
	if e.height == height {
		return
	}
	e.height = height
	for _, c := range e.children {
		t.setHeight(c, height+1)
	}
	if e.shadow != nil {
		for _, r := range e.shadow.Roots {
			t.setHeight(r, height+1)
		}
	}
}

// isAncestor reports whether a is b or one of b's ancestors.
func (t *Tree) isAncestor(a, b NodeID) bool {
	for b != NoNode {
		if a == b {
			return true
		}
		e, ok := t.nodes.Get(b)
		if !ok {
			return false
		}
		b = e.parent
	}
	return false
}

func (t *Tree) mustGet(id NodeID) *entry {
	e, ok := t.nodes.Get(id)
	if !ok {
		panic(errors.AssertionFailedf("tree: node %d not found", id))
	}
	return e
}
