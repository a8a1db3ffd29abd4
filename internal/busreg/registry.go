// internal/busreg/registry.go

// Package busreg is the bus/device registry: it owns the set of live
// controllers and devices, attaches new devices to controllers, and serves
// reference-counted lookups.
package busreg

import (
	"sync"

	"github.com/tamzrod/hwenum/internal/hwtree"
)

// Registry holds every registered controller and device.
type Registry struct {
	mu          sync.Mutex
	controllers []*Controller
	devices     []*Device
	nextNr      int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddController registers a controller backed by impl and described by
// node (which may be nil). The registry keeps the canonical reference.
func (r *Registry) AddController(name string, node *hwtree.Node, impl Impl) (*Controller, error) {
	ctrl := &Controller{
		reg:     r,
		name:    name,
		node:    node,
		impl:    impl,
		devices: map[uint16]*Device{},
	}
	ctrl.refs.Store(1) // the registry's canonical reference

	if node != nil {
		node.Get()
	}

	r.mu.Lock()
	ctrl.nr = r.nextNr
	r.nextNr++
	r.controllers = append(r.controllers, ctrl)
	r.mu.Unlock()

	return ctrl, nil
}

// DelController unregisters a controller and every device attached to it,
// then drops the registry's references.
func (r *Registry) DelController(ctrl *Controller) {
	ctrl.mu.Lock()
	ctrl.dead = true
	attached := make([]*Device, 0, len(ctrl.devices))
	for _, d := range ctrl.devices {
		attached = append(attached, d)
	}
	ctrl.mu.Unlock()

	for _, d := range attached {
		r.UnregisterDevice(d)
	}

	r.mu.Lock()
	for i, c := range r.controllers {
		if c == ctrl {
			r.controllers = append(r.controllers[:i], r.controllers[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if ctrl.node != nil {
		ctrl.node.Put()
	}
	ctrl.Put()
}

// UnregisterDevice detaches a device from its controller and drops the
// registry's canonical reference. Safe to call once per device.
func (r *Registry) UnregisterDevice(dev *Device) {
	dev.ctrl.mu.Lock()
	if cur, ok := dev.ctrl.devices[dev.addr]; ok && cur == dev {
		delete(dev.ctrl.devices, dev.addr)
	}
	dev.ctrl.mu.Unlock()

	r.mu.Lock()
	for i, d := range r.devices {
		if d == dev {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if dev.node != nil {
		dev.node.Put()
	}
	dev.Put()
}

// FindObject returns the first registered object satisfying pred, with a
// fresh reference the caller must Put, or nil. Controllers are scanned
// before devices, each set in registration order.
func (r *Registry) FindObject(pred func(Object) bool) Object {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.controllers {
		if pred(c) {
			c.Get()
			return c
		}
	}
	for _, d := range r.devices {
		if pred(d) {
			d.Get()
			return d
		}
	}
	return nil
}

// Devices returns a snapshot of the registered devices in registration
// order. Borrowed pointers; diagnostic use only.
func (r *Registry) Devices() []*Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Device, len(r.devices))
	copy(out, r.devices)
	return out
}

func (r *Registry) addDevice(dev *Device) {
	r.mu.Lock()
	r.devices = append(r.devices, dev)
	r.mu.Unlock()
}
