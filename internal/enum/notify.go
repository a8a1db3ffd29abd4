// internal/enum/notify.go
package enum

import (
	"log"

	"github.com/tamzrod/hwenum/internal/hwtree"
)

// Notify is the tree-change callback. Subscribe it on every tree whose
// nodes describe devices managed by this enumerator.
//
// It is safe to run concurrently with RegisterDevices over the same
// controller: the node's populated marker is the only synchronization
// between the two paths.
//
// On removal the marker is deliberately left set. The node is expected to
// be destroyed by the mutation that fired the event; a tree source that
// recycles nodes without destroying them must clear the marker itself.
func (e *Enumerator) Notify(ev hwtree.Event) hwtree.Outcome {
	switch ev.Kind {
	case hwtree.NodeAdded:
		parent := ev.Node.Parent()
		if parent == nil {
			return hwtree.NotHandled()
		}
		ctrl := e.FindControllerByNode(parent)
		if ctrl == nil {
			// Not a child of any controller we know. Not for us.
			return hwtree.NotHandled()
		}

		if ev.Node.TestAndSetPopulated() {
			// Lost the race with a concurrent walk, or a duplicate add.
			ctrl.Put()
			return hwtree.Handled()
		}

		_, err := registerDevice(ctrl, ev.Node)
		ctrl.Put()
		if err != nil {
			log.Printf("enum: failed to create device (node=%s): %v", ev.Node.Name(), err)
			ev.Node.ClearPopulated()
			return hwtree.Fail(err)
		}
		return hwtree.Handled()

	case hwtree.NodeRemoved:
		if !ev.Node.Populated() {
			// Never instantiated by us, or already depopulated.
			return hwtree.NotHandled()
		}

		dev := e.FindDeviceByNode(ev.Node)
		if dev == nil {
			// Device already gone through another path.
			return hwtree.NotHandled()
		}

		// Unregister drops the registry's reference; then drop the find's.
		e.reg.UnregisterDevice(dev)
		dev.Put()
		return hwtree.Handled()

	default:
		return hwtree.NotHandled()
	}
}
