// internal/watch/diff.go
package watch

import "github.com/tamzrod/hwenum/internal/hwtree"

// Change is one structural difference between two description specs.
type Change struct {
	// Path names the parent node chain from (but excluding) the root.
	Path []string

	// Added is the new subtree to attach under Path; nil for a removal.
	Added *hwtree.NodeSpec

	// Removed is the name of the child to detach under Path; empty for an
	// addition.
	Removed string
}

// Diff computes the structural changes turning old into new. Children are
// keyed by name; property changes on surviving nodes are not tracked (node
// identity is stable for a node's lifetime, so a property edit requires a
// remove/add pair in the description file).
func Diff(oldSpec, newSpec *hwtree.NodeSpec) []Change {
	var out []Change
	diffChildren(oldSpec, newSpec, nil, &out)
	return out
}

func diffChildren(oldSpec, newSpec *hwtree.NodeSpec, path []string, out *[]Change) {
	oldByName := map[string]*hwtree.NodeSpec{}
	for i := range oldSpec.Children {
		c := &oldSpec.Children[i]
		oldByName[c.Name] = c
	}

	newByName := map[string]struct{}{}
	for i := range newSpec.Children {
		c := &newSpec.Children[i]
		newByName[c.Name] = struct{}{}

		prev, ok := oldByName[c.Name]
		if !ok {
			*out = append(*out, Change{Path: clone(path), Added: c})
			continue
		}
		diffChildren(prev, c, append(path, c.Name), out)
	}

	// Removals, in the old spec's order.
	for i := range oldSpec.Children {
		c := &oldSpec.Children[i]
		if _, ok := newByName[c.Name]; !ok {
			*out = append(*out, Change{Path: clone(path), Removed: c.Name})
		}
	}
}

func clone(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}
