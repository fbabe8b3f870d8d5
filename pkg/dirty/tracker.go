// Package dirty records which states are stale on which nodes, and why.
//
// A Tracker accumulates marks between update cycles. Drain hands the
// accumulated marks to one cycle as a Snapshot and starts over empty;
// marks made while that cycle runs land in the next Snapshot.
package dirty

import (
	"sync"

	"github.com/vango-dev/realdom/pkg/mask"
	"github.com/vango-dev/realdom/pkg/state"
	"github.com/vango-dev/realdom/pkg/tree"
)

// Reason is a structural change seen by a node.
type Reason uint8

const (
	// ParentChanged means the node gained or lost its parent.
	ParentChanged Reason = iota
	// ChildChanged means a child was added to or removed from the node.
	ChildChanged
)

func (r Reason) String() string {
	if r == ParentChanged {
		return "ParentChanged"
	}
	return "ChildChanged"
}

// Tracker is safe for concurrent use.
type Tracker struct {
	reg *state.Registry

	// Fixed after construction.
	all       PassSet
	byParent  PassSet
	byChild   PassSet
	passMasks []mask.NodeMask

	mu     sync.Mutex
	passes map[tree.NodeID]PassSet
	masks  map[tree.NodeID]mask.NodeMask
}

// NewTracker returns an empty tracker for the states of reg.
func NewTracker(reg *state.Registry) *Tracker {
	t := &Tracker{reg: reg}
	for _, p := range reg.Passes() {
		t.all.Add(p.Index())
		if len(p.ParentDeps()) > 0 {
			t.byParent.Add(p.Index())
		}
		if len(p.ChildDeps()) > 0 {
			t.byChild.Add(p.Index())
		}
		t.passMasks = append(t.passMasks, p.Mask())
	}
	t.reset()
	return t
}

func (t *Tracker) reset() {
	t.passes = make(map[tree.NodeID]PassSet)
	t.masks = make(map[tree.NodeID]mask.NodeMask)
}

func (t *Tracker) addPasses(id tree.NodeID, s PassSet) {
	cur := t.passes[id]
	cur.Union(s)
	t.passes[id] = cur
}

// MarkMutated records that the parts of id selected by m changed. Every
// state whose mask overlaps m becomes stale on id.
func (t *Tracker) MarkMutated(id tree.NodeID, m mask.NodeMask) {
	var s PassSet
	for i, pm := range t.passMasks {
		if pm.Overlaps(m) {
			s.Add(i)
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addPasses(id, s)
	t.masks[id] = t.masks[id].Union(m)
}

// MarkStructural records a structural change. States reading the parent
// become stale on ParentChanged; states reading the children on
// ChildChanged.
func (t *Tracker) MarkStructural(id tree.NodeID, r Reason) {
	s := t.byChild
	if r == ParentChanged {
		s = t.byParent
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addPasses(id, s)
}

// MarkPass marks the state with the given index stale on id.
func (t *Tracker) MarkPass(id tree.NodeID, index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.passes[id]
	cur.Add(index)
	t.passes[id] = cur
}

// MarkCreated marks every state stale on a new node, with the full mask.
func (t *Tracker) MarkCreated(id tree.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addPasses(id, t.all)
	t.masks[id] = mask.All()
}

// Pending returns the number of nodes with stale states.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.passes {
		if s.Len() > 0 {
			n++
		}
	}
	return n
}

// IsDirty reports whether the state with the given index is stale on id.
func (t *Tracker) IsDirty(id tree.NodeID, index int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.passes[id].Has(index)
}

// Drain takes the accumulated marks and clears the tracker.
func (t *Tracker) Drain() *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &Snapshot{reg: t.reg, passes: t.passes, masks: t.masks}
	t.reset()
	return s
}
