package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/vango-dev/realdom/pkg/node"
	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/tree"
)

var palette = []string{"black", "navy", "teal", "maroon", "olive", "transparent"}

// buildTree grows a synthetic tree under the root: depth levels of
// elements with fanout children each, and a text leaf under every element
// of the last level. It returns the ids of the elements.
func buildTree(d *realdom.Dom, depth, fanout int) []tree.NodeID {
	var elems []tree.NodeID
	var grow func(parent realdom.NodeMut, level int)
	grow = func(parent realdom.NodeMut, level int) {
		for i := 0; i < fanout; i++ {
			if level == depth {
				leaf := d.CreateNode(node.Text(fmt.Sprintf("leaf %d", i)))
				parent.AddChild(leaf.ID())
				continue
			}
			el := d.CreateNode(node.Element("div").WithAttr("width", i+1))
			parent.AddChild(el.ID())
			elems = append(elems, el.ID())
			grow(el, level+1)
		}
	}
	root, _ := d.GetMut(d.RootID())
	grow(root, 0)
	return elems
}

// mutator applies random attribute and listener edits to a set of
// elements.
type mutator struct {
	rng   *rand.Rand
	elems []tree.NodeID
}

func newMutator(seed uint64, elems []tree.NodeID) *mutator {
	return &mutator{rng: rand.New(rand.NewPCG(seed, seed)), elems: elems}
}

// mutate edits one random element and reports what it did.
func (m *mutator) mutate(d *realdom.Dom) string {
	if len(m.elems) == 0 {
		return ""
	}
	id := m.elems[m.rng.IntN(len(m.elems))]
	n, ok := d.GetMut(id)
	if !ok {
		return ""
	}
	el, ok := n.Element()
	if !ok {
		return ""
	}
	switch m.rng.IntN(4) {
	case 0:
		c := palette[m.rng.IntN(len(palette))]
		el.SetAttribute("color", c)
		return fmt.Sprintf("%d color=%s", id, c)
	case 1:
		w := m.rng.IntN(40) + 1
		el.SetAttribute("width", w)
		return fmt.Sprintf("%d width=%d", id, w)
	case 2:
		if d.IsNodeListening(id, "click") {
			n.RemoveEventListener("click")
			return fmt.Sprintf("%d -click", id)
		}
		n.AddEventListener("click")
		return fmt.Sprintf("%d +click", id)
	default:
		if _, had := el.RemoveAttribute("aria-hidden"); had {
			return fmt.Sprintf("%d -aria-hidden", id)
		}
		el.SetAttribute("aria-hidden", "true")
		return fmt.Sprintf("%d aria-hidden", id)
	}
}
