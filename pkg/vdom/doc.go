// Package vdom is a small virtual node vocabulary and the adapter that turns
// it into realdom nodes.
//
// VNode trees are built with variadic factory functions:
//
//	Div(Class("card"), Role("region"),
//	    H1(Text("Title")),
//	    Button(OnClick(nil), Text("OK")),
//	)
//
// Mount materializes a VNode tree under an existing node of a realdom.Dom and
// returns a Binding that maps hydration IDs to engine node ids. Patches
// addressed by hydration ID are then applied with Binding.Apply; each patch
// becomes the matching node mutation, so the engine marks exactly the states
// that read what changed.
//
// # Hydration
//
// Every element and text node gets a hydration ID (HID) when it is mounted,
// unless it already carries one. HIDs are how patches find their target.
package vdom
