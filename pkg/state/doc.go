// Package state declares derived per-node states and how they depend on
// each other.
//
// A state is a Go type whose pointer implements Updater. Register turns it
// into a Descriptor that records what the state reads from its node (a
// mask.NodeMask) and which states it reads on the parent, on the children
// and on the same node. Resolve checks a set of descriptors, inverts those
// declarations into a dependants graph and compiles an execution plan in
// which every state runs after the states it reads.
//
//	type Size struct{ W, H int }
//
//	func (s *Size) Update(ctx *state.Context) bool {
//	    next := Size{}
//	    for _, c := range state.Children[Size](ctx) {
//	        next.W += c.W
//	    }
//	    changed := next != *s
//	    *s = next
//	    return changed
//	}
//
//	size := state.Register[Size](state.Config{
//	    Mask:      mask.New().WithAttrs("width").Build(),
//	    ChildDeps: []state.TypeID{state.TypeOf[Size]()},
//	})
//
// A state that reads its own value on the parent runs ParentToChild; one
// that reads it on its children runs ChildToParent.
package state
