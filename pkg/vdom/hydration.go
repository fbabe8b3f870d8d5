package vdom

import (
	"fmt"
	"sync"
)

// HIDGenerator generates unique hydration IDs.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next hydration ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// AssignHIDs gives every element, text and placeholder node without a HID
// a fresh one. Fragments never get a HID; they do not survive mounting.
func AssignHIDs(node *VNode, gen *HIDGenerator) {
	if node == nil {
		return
	}
	if node.Kind != KindFragment && node.HID == "" {
		node.HID = gen.Next()
	}
	for _, child := range node.Children {
		AssignHIDs(child, gen)
	}
}

// FindByHID finds a node by its HID in the tree.
func FindByHID(node *VNode, hid string) *VNode {
	if node == nil {
		return nil
	}

	if node.HID == hid {
		return node
	}

	for _, child := range node.Children {
		if found := FindByHID(child, hid); found != nil {
			return found
		}
	}

	return nil
}
