// internal/enum/lookup.go
package enum

import (
	"github.com/tamzrod/hwenum/internal/busreg"
	"github.com/tamzrod/hwenum/internal/hwtree"
)

// FindDeviceByNode returns the live device instantiated from node, with a
// reference the caller must Put, or nil when there is none.
func (e *Enumerator) FindDeviceByNode(node *hwtree.Node) *busreg.Device {
	obj := e.reg.FindObject(func(o busreg.Object) bool {
		return o.Node() == node
	})
	if obj == nil {
		return nil
	}
	dev, ok := busreg.VerifyDevice(obj)
	if !ok {
		obj.Put()
		return nil
	}
	return dev
}

// FindControllerByNode returns the live controller owning node, with a
// reference the caller must Put, or nil. A controller matches through its
// own node; a device matches through its controller's node, covering
// topologies where a device's node is a child of its controller's.
func (e *Enumerator) FindControllerByNode(node *hwtree.Node) *busreg.Controller {
	obj := e.reg.FindObject(func(o busreg.Object) bool {
		if o.Node() == node {
			return true
		}
		if d, ok := busreg.VerifyDevice(o); ok {
			return d.Controller().Node() == node
		}
		return false
	})
	if obj == nil {
		return nil
	}
	ctrl, ok := busreg.VerifyController(obj)
	if !ok {
		obj.Put()
		return nil
	}
	return ctrl
}

// GetControllerByNode is FindControllerByNode plus a pin on the
// controller's backing implementation, so it cannot be torn down while the
// caller uses it. Release with PutController.
func (e *Enumerator) GetControllerByNode(node *hwtree.Node) *busreg.Controller {
	ctrl := e.FindControllerByNode(node)
	if ctrl == nil {
		return nil
	}
	if !ctrl.TryPin() {
		ctrl.Put()
		return nil
	}
	return ctrl
}
