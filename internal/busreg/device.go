// internal/busreg/device.go
package busreg

import (
	"fmt"
	"sync/atomic"

	"github.com/tamzrod/hwenum/internal/hwtree"
)

// Object is any registered bus entity (device or controller) with
// reference-counted access and an optional description-node identity.
type Object interface {
	// Node returns the description node the object was instantiated from,
	// or nil. Borrowed pointer.
	Node() *hwtree.Node

	// Get acquires one reference.
	Get()

	// Put drops one reference. Every Get, and every reference handed out by
	// a registry search, must be balanced by exactly one Put.
	Put()
}

// Device is one addressable peripheral attached to a controller. The
// registry holds the canonical reference from instantiation until
// UnregisterDevice.
type Device struct {
	ctrl  *Controller
	name  string
	addr  uint16
	flags Flags
	node  *hwtree.Node

	refs atomic.Int32
}

// Name returns the device identification string.
func (d *Device) Name() string { return d.name }

// Addr returns the bus address (tag bits are never present here).
func (d *Device) Addr() uint16 { return d.addr }

// Flags returns the device's addressing and capability flags.
func (d *Device) Flags() Flags { return d.flags }

// Controller returns the owning controller as a borrowed pointer.
func (d *Device) Controller() *Controller { return d.ctrl }

// Node returns the originating description node, or nil. Borrowed pointer.
func (d *Device) Node() *hwtree.Node { return d.node }

// Get acquires one reference.
func (d *Device) Get() { d.refs.Add(1) }

// Put drops one reference. Underflow panics: it means a double release.
func (d *Device) Put() {
	if d.refs.Add(-1) < 0 {
		panic(fmt.Sprintf("busreg: reference underflow on device %q", d.name))
	}
}

// Refs returns the current reference count. Diagnostic use only.
func (d *Device) Refs() int32 { return d.refs.Load() }

// Transfer performs one write-then-read transaction against the device
// through its controller's implementation.
func (d *Device) Transfer(w, r []byte) error {
	return d.ctrl.transfer(d.addr, w, r)
}

// VerifyDevice narrows a registry object to a device.
func VerifyDevice(obj Object) (*Device, bool) {
	d, ok := obj.(*Device)
	return d, ok
}

// VerifyController narrows a registry object to a controller.
func VerifyController(obj Object) (*Controller, bool) {
	c, ok := obj.(*Controller)
	return c, ok
}
