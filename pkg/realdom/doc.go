// Package realdom is an incremental derived-state engine over a mutable
// node tree.
//
// A Dom owns a tree of element, text and placeholder nodes and a set of
// derived states (see package state). Mutations made through NodeMut
// handles mark the affected states stale; Update recomputes exactly the
// stale (node, state) pairs, visiting nodes in height order and running
// independent states concurrently.
//
//	dom, err := realdom.New([]*state.Descriptor{states.SizeState, states.ColorState})
//	if err != nil {
//	    return err
//	}
//	rect := dom.CreateNode(node.Element("rect").WithAttr("width", 10))
//	root, _ := dom.GetMut(dom.RootID())
//	root.AddChild(rect.ID())
//	changed := dom.Update(ctx, nil)
//
// A state whose value changes invalidates the states that read it on the
// parent, the children or the same node. Those invalidations are picked up
// by the next Update, unless the invalidated pair is still waiting to run
// in the current one. Settle runs cycles until nothing is stale.
//
// A Dom is not safe for concurrent use. Mutations must not overlap an
// Update.
package realdom
