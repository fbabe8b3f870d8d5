// Package tree provides the ownership structure underlying a realdom.
//
// A Tree records, for every NodeID, its parent, its ordered children and its
// height (distance from the root of the subtree it is attached to). Heights
// are maintained eagerly on every structural change so that, at any point
// between mutations, height(child) == height(parent) + 1 holds for every
// attached node. Detached nodes have height 0.
//
// # Shadow trees
//
// A node may host a shadow tree: a list of shadow roots rendered in place of
// its light children, plus an optional slot under which the light children
// are rendered. Plain traversal (Children, ParentID) ignores the
// substitution; ChildrenAdvanced and ParentAdvanced apply it when
// enterShadow is true.
package tree
