package realdom

import (
	"fmt"

	"github.com/vango-dev/realdom/pkg/tree"
)

// NodeSnapshot is a serializable copy of a node, its state values and its
// subtree.
type NodeSnapshot struct {
	ID         tree.NodeID       `json:"id"`
	Kind       string            `json:"kind"`
	Tag        string            `json:"tag,omitempty"`
	Text       string            `json:"text,omitempty"`
	Height     uint16            `json:"height"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Listeners  []string          `json:"listeners,omitempty"`
	States     map[string]string `json:"states,omitempty"`
	Stale      []string          `json:"stale,omitempty"`
	Children   []*NodeSnapshot   `json:"children,omitempty"`
}

// Snapshot copies the tree reachable from the root.
func (d *Dom) Snapshot() *NodeSnapshot {
	s, _ := d.SnapshotNode(d.root)
	return s
}

// SnapshotNode copies id and its subtree.
func (d *Dom) SnapshotNode(id tree.NodeID) (*NodeSnapshot, bool) {
	r, ok := d.Get(id)
	if !ok {
		return nil, false
	}
	t := r.Type()
	s := &NodeSnapshot{
		ID:        id,
		Kind:      t.Kind.String(),
		Tag:       t.Tag,
		Text:      t.Text,
		Height:    r.Height(),
		Listeners: t.ListenerNames(),
	}
	for _, name := range t.AttributeNames() {
		if s.Attributes == nil {
			s.Attributes = make(map[string]string, len(t.Attributes))
		}
		s.Attributes[name] = fmt.Sprint(t.Attributes[name])
	}
	for _, p := range d.registry.Passes() {
		if v, ok := p.Format(d.store, id); ok {
			if s.States == nil {
				s.States = make(map[string]string)
			}
			s.States[p.Name()] = v
		}
		if d.tracker.IsDirty(id, p.Index()) {
			s.Stale = append(s.Stale, p.Name())
		}
	}
	for _, c := range d.tree.Children(id) {
		cs, _ := d.SnapshotNode(c)
		s.Children = append(s.Children, cs)
	}
	return s, true
}
