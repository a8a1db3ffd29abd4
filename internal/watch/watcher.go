// internal/watch/watcher.go

// Package watch turns edits of the description file into tree change
// events: it reloads the file, diffs the new spec against the previous one,
// and replays the differences as node attach/detach operations on the live
// tree, which fans them out to subscribers.
package watch

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/tamzrod/hwenum/internal/hwtree"
)

// Watcher follows one description file.
type Watcher struct {
	path string
	tree *hwtree.Tree
	last *hwtree.NodeSpec
}

// New creates a watcher for path. last is the spec the live tree was built
// from; subsequent reloads are diffed against it.
func New(path string, tree *hwtree.Tree, last *hwtree.NodeSpec) *Watcher {
	return &Watcher{path: path, tree: tree, last: last}
}

// Run watches the file until ctx is cancelled. Reload and apply errors are
// logged and non-fatal: a broken intermediate save must not kill the
// daemon.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory: editors replace files by rename, which drops a
	// watch held on the file itself.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				log.Printf("watch: reload failed (path=%s): %v", w.path, err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: watcher error (path=%s): %v", w.path, err)
		}
	}
}

func (w *Watcher) reload() error {
	spec, err := hwtree.LoadSpec(w.path)
	if err != nil {
		return err
	}
	if err := hwtree.ValidateSpec(spec); err != nil {
		return err
	}

	changes := Diff(w.last, spec)
	w.last = spec

	for _, ch := range changes {
		if err := Apply(w.tree, ch); err != nil {
			log.Printf("watch: change rejected (path=%v): %v", ch.Path, err)
		}
	}
	return nil
}

// Apply replays one structural change on the live tree. Attach and detach
// fire the tree's change events; a subscriber failure is returned but the
// remaining changes still apply.
func Apply(tree *hwtree.Tree, ch Change) error {
	parent := tree.FindByPath(ch.Path...)
	if parent == nil {
		return nil // parent vanished through an earlier removal
	}
	defer parent.Put()

	if ch.Added != nil {
		return attachSpec(tree, parent, ch.Added)
	}

	node := parent.ChildByName(ch.Removed)
	if node == nil {
		return nil
	}
	defer node.Put()
	return detachAll(tree, node)
}

// attachSpec attaches a subtree top-down so every added node fires its
// event with a live parent.
func attachSpec(tree *hwtree.Tree, parent *hwtree.Node, spec *hwtree.NodeSpec) error {
	node := tree.NewNode(spec.Name, spec.Props())
	err := tree.AttachNode(parent, node)

	for i := range spec.Children {
		if cerr := attachSpec(tree, node, &spec.Children[i]); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// detachAll detaches a subtree bottom-up so leaf devices retire before
// their enclosing nodes.
func detachAll(tree *hwtree.Tree, node *hwtree.Node) error {
	var err error
	for _, c := range node.Children() {
		if cerr := detachAll(tree, c); cerr != nil && err == nil {
			err = cerr
		}
		c.Put()
	}
	if derr := tree.DetachNode(node); derr != nil && err == nil {
		err = derr
	}
	return err
}
