// internal/hwtree/node.go
package hwtree

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Node is one entity in the hardware-description tree.
// Identity is stable for the node's lifetime. Nodes are reference-counted:
// every pointer handed out by a traversal or lookup carries one reference
// that the caller must drop with Put exactly once.
type Node struct {
	name string
	tree *Tree

	// Properties are fixed at construction. Reads need no locking.
	props map[string]any

	available bool

	mu       sync.Mutex
	parent   *Node
	children []*Node
	detached bool

	refs      atomic.Int32
	populated atomic.Bool
}

// Name returns the node name (unique among siblings).
func (n *Node) Name() string { return n.name }

// Parent returns the parent node as a borrowed pointer, or nil for the root
// or a detached node. Callers that keep it past the current call must Get it.
func (n *Node) Parent() *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

// Available reports whether the node is enabled ("status" absent or "okay").
func (n *Node) Available() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.available && !n.detached
}

// Get acquires one reference and returns the node for chaining.
func (n *Node) Get() *Node {
	n.refs.Add(1)
	return n
}

// Put drops one reference. Dropping more references than were acquired is a
// caller bug and panics.
func (n *Node) Put() {
	if n.refs.Add(-1) < 0 {
		panic(fmt.Sprintf("hwtree: reference underflow on node %q", n.name))
	}
}

// Refs returns the current reference count. Diagnostic use only.
func (n *Node) Refs() int32 { return n.refs.Load() }

// TestAndSetPopulated atomically sets the populated marker and reports
// whether it was already set. This is the sole synchronization point
// guaranteeing at-most-once device instantiation per node.
func (n *Node) TestAndSetPopulated() bool {
	return !n.populated.CompareAndSwap(false, true)
}

// ClearPopulated clears the populated marker (registration rollback).
func (n *Node) ClearPopulated() { n.populated.Store(false) }

// Populated reports the current marker state without modifying it.
func (n *Node) Populated() bool { return n.populated.Load() }

// HasProp reports whether a property exists, regardless of its value.
func (n *Node) HasProp(name string) bool {
	_, ok := n.props[name]
	return ok
}

// PropString reads a string property.
func (n *Node) PropString(name string) (string, bool) {
	v, ok := n.props[name].(string)
	return v, ok
}

// PropU32 reads a numeric property.
func (n *Node) PropU32(name string) (uint32, bool) {
	v, ok := n.props[name].(uint32)
	return v, ok
}

// PropBool reads a boolean property. Boolean properties follow the
// presence-only convention: a present property is true whatever its value.
func (n *Node) PropBool(name string) bool {
	return n.HasProp(name)
}

// ChildByName returns the direct child with the given name, referenced,
// or nil if there is none.
func (n *Node) ChildByName(name string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.children {
		if c.name == name {
			return c.Get()
		}
	}
	return nil
}

// Children returns a snapshot of all children in tree order. Each returned
// node carries one reference the caller must Put.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c.Get())
	}
	return out
}

// AvailableChildren returns a snapshot of the enabled children in tree
// order. Each returned node carries one reference the caller must Put.
func (n *Node) AvailableChildren() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*Node
	for _, c := range n.children {
		if c.available && !c.detached {
			out = append(out, c.Get())
		}
	}
	return out
}

// Modalias derives the device identification string from the node's
// compatible property: the portion after the vendor prefix comma, or the
// whole value when there is no prefix. Returns false when the property is
// absent or empty.
func (n *Node) Modalias() (string, bool) {
	compat, ok := n.PropString("compatible")
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(compat, ','); i >= 0 {
		compat = compat[i+1:]
	}
	if compat == "" {
		return "", false
	}
	return compat, true
}

// IsCompatible reports whether the node's compatible property equals the
// given full compatible string. Description-side identity matching is exact
// and case-sensitive.
func (n *Node) IsCompatible(compat string) bool {
	v, ok := n.PropString("compatible")
	return ok && v == compat
}
