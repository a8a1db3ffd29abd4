// internal/enum/register.go
package enum

import (
	"fmt"
	"log"

	"github.com/tamzrod/hwenum/internal/busreg"
	"github.com/tamzrod/hwenum/internal/hwtree"
)

// busContainerName is the optional sub-node grouping a controller's child
// devices; when present it is the enumeration root instead of the
// controller's own node.
const busContainerName = "bus-container"

// registerDevice instantiates one device for node on ctrl. It does not
// touch the node's populated marker; callers own the marker transition and
// its rollback.
func registerDevice(ctrl *busreg.Controller, node *hwtree.Node) (*busreg.Device, error) {
	info, err := GetBoardInfo(node)
	if err != nil {
		return nil, err
	}

	dev, err := ctrl.NewDevice(info)
	if err != nil {
		return nil, fmt.Errorf("%w (node=%s): %v", ErrRegistrationFailed, node.Name(), err)
	}
	return dev, nil
}

// RegisterDevices instantiates a device for every available, not yet
// populated child of the controller's enumeration root. Per-node errors are
// logged and rolled back without aborting the walk. Re-running is a no-op
// for already populated nodes, and the walk is safe against concurrent
// tree-change notifications for the same nodes.
func (e *Enumerator) RegisterDevices(ctrl *busreg.Controller) {
	root := ctrl.Node()
	if root == nil {
		return
	}

	bus := root.ChildByName(busContainerName)
	if bus == nil {
		bus = root.Get()
	}
	defer bus.Put()

	for _, node := range bus.AvailableChildren() {
		if node.TestAndSetPopulated() {
			node.Put()
			continue
		}
		if _, err := registerDevice(ctrl, node); err != nil {
			log.Printf("enum: failed to create device (ctrl=%s node=%s): %v",
				ctrl.Name(), node.Name(), err)
			node.ClearPopulated()
		}
		node.Put()
	}
}
