// internal/hwtree/tree.go
package hwtree

import (
	"errors"
	"sync"
)

// Tree owns a node graph and fans out structural change events to
// subscribers. Structure mutations (attach/detach) are serialized per tree;
// property reads and the populated marker are lock-free.
type Tree struct {
	root *Node

	mu      sync.Mutex
	subs    map[int]Handler
	nextSub int
}

// NewTree creates a tree with a root node carrying the given properties.
// The tree holds one reference on every node it owns.
func NewTree(rootName string, props map[string]any) *Tree {
	t := &Tree{subs: make(map[int]Handler)}
	t.root = t.newNode(rootName, props)
	return t
}

// Root returns the root node as a borrowed pointer.
func (t *Tree) Root() *Node { return t.root }

// NewNode creates a detached node owned by this tree. It becomes part of
// the graph on AttachNode.
func (t *Tree) NewNode(name string, props map[string]any) *Node {
	return t.newNode(name, props)
}

func (t *Tree) newNode(name string, props map[string]any) *Node {
	if props == nil {
		props = map[string]any{}
	}
	n := &Node{
		name:      name,
		tree:      t,
		props:     props,
		available: statusOkay(props),
	}
	n.refs.Store(1) // the tree's own reference
	return n
}

func statusOkay(props map[string]any) bool {
	s, ok := props["status"].(string)
	if !ok {
		return true
	}
	return s == "okay" || s == "ok"
}

// AttachNode links node under parent and notifies subscribers of the
// addition. If a subscriber fails, the error is returned so the mutation's
// initiator can react; the node stays attached (the tree protocol has no
// rollback).
func (t *Tree) AttachNode(parent, node *Node) error {
	if parent.tree != t || node.tree != t {
		return errors.New("hwtree: node belongs to a different tree")
	}

	node.mu.Lock()
	node.parent = parent
	node.detached = false
	node.mu.Unlock()

	parent.mu.Lock()
	parent.children = append(parent.children, node)
	parent.mu.Unlock()

	return t.notify(Event{Kind: NodeAdded, Node: node})
}

// DetachNode notifies subscribers of the removal, then unlinks the node and
// drops the tree's reference. Subscribers see the node while it is still
// part of the graph so lookups keyed on it still resolve.
func (t *Tree) DetachNode(node *Node) error {
	if node.tree != t {
		return errors.New("hwtree: node belongs to a different tree")
	}

	err := t.notify(Event{Kind: NodeRemoved, Node: node})

	node.mu.Lock()
	parent := node.parent
	node.parent = nil
	node.detached = true
	node.mu.Unlock()

	if parent != nil {
		parent.mu.Lock()
		for i, c := range parent.children {
			if c == node {
				parent.children = append(parent.children[:i], parent.children[i+1:]...)
				break
			}
		}
		parent.mu.Unlock()
	}

	node.Put() // the tree's reference
	return err
}

// FindByPath walks name components from the root and returns the node,
// referenced, or nil when any component is missing.
func (t *Tree) FindByPath(path ...string) *Node {
	cur := t.root.Get()
	for _, name := range path {
		next := cur.ChildByName(name)
		cur.Put()
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}
