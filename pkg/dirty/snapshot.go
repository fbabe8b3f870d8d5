package dirty

import (
	"cmp"
	"slices"

	"github.com/vango-dev/realdom/pkg/mask"
	"github.com/vango-dev/realdom/pkg/state"
	"github.com/vango-dev/realdom/pkg/tree"
)

// Item is a node queued for one state, with the height it is ordered by.
type Item struct {
	ID     tree.NodeID
	Height uint16
}

// Snapshot is the frozen dirty set of one update cycle.
type Snapshot struct {
	reg    *state.Registry
	passes map[tree.NodeID]PassSet
	masks  map[tree.NodeID]mask.NodeMask
}

// Has reports whether the state with the given index is stale on id.
func (s *Snapshot) Has(id tree.NodeID, index int) bool {
	return s.passes[id].Has(index)
}

// Nodes returns the number of nodes with at least one stale state.
func (s *Snapshot) Nodes() int {
	n := 0
	for _, p := range s.passes {
		if p.Len() > 0 {
			n++
		}
	}
	return n
}

// Masks returns the accumulated change mask of every mutated node.
func (s *Snapshot) Masks() map[tree.NodeID]mask.NodeMask {
	return s.masks
}

// Queues returns, for every state index, the stale nodes still in t, in
// the order the state must visit them: ascending height for ParentToChild
// and DirectionNone, descending height for ChildToParent. Ties are broken
// by id. States that enter shadow trees are ordered by the depth of the
// shadow-aware parent chain.
func (s *Snapshot) Queues(t *tree.Tree) [][]Item {
	n := s.reg.Len()
	queues := make([][]Item, n)
	shadowDepth := make(map[tree.NodeID]uint16)
	for id, set := range s.passes {
		h, ok := t.Height(id)
		if !ok {
			// Created and removed before this cycle.
			continue
		}
		set.Each(func(i int) {
			if i >= n {
				return
			}
			height := h
			if s.reg.At(i).EnterShadow() {
				height = logicalDepth(t, id, shadowDepth)
			}
			queues[i] = append(queues[i], Item{ID: id, Height: height})
		})
	}
	for i, q := range queues {
		desc := s.reg.At(i).Direction() == state.ChildToParent
		slices.SortFunc(q, func(a, b Item) int {
			if c := cmp.Compare(a.Height, b.Height); c != 0 {
				if desc {
					return -c
				}
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	}
	return queues
}

func logicalDepth(t *tree.Tree, id tree.NodeID, memo map[tree.NodeID]uint16) uint16 {
	if d, ok := memo[id]; ok {
		return d
	}
	d := uint16(0)
	if p, ok := t.ParentAdvanced(id, true); ok {
		d = logicalDepth(t, p, memo) + 1
	}
	memo[id] = d
	return d
}
