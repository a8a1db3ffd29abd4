// internal/busreg/controller.go
package busreg

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tamzrod/hwenum/internal/hwtree"
)

// Impl is a controller's backing implementation. Pinning prevents the
// implementation from being torn down while a caller depends on it;
// every successful TryPin must be balanced by one Unpin.
type Impl interface {
	TryPin() bool
	Unpin()

	// Transfer performs one write-then-read transaction with the device at
	// addr. Either buffer may be empty.
	Transfer(addr uint16, w, r []byte) error
}

// Controller is one bus master capable of addressing peripherals. The
// registry creates and destroys controllers; everyone else only borrows
// them through reference-counted lookups.
type Controller struct {
	reg  *Registry
	name string
	nr   int
	node *hwtree.Node
	impl Impl

	refs atomic.Int32

	mu      sync.Mutex
	devices map[uint16]*Device
	dead    bool
}

// Name returns the controller name.
func (c *Controller) Name() string { return c.name }

// Nr returns the registry-assigned controller number.
func (c *Controller) Nr() int { return c.nr }

// Node returns the controller's root description node, or nil when the
// controller is not described declaratively. Borrowed pointer.
func (c *Controller) Node() *hwtree.Node { return c.node }

// Get acquires one reference.
func (c *Controller) Get() { c.refs.Add(1) }

// Put drops one reference. Underflow panics: it means a double release.
func (c *Controller) Put() {
	if c.refs.Add(-1) < 0 {
		panic(fmt.Sprintf("busreg: reference underflow on controller %q", c.name))
	}
}

// Refs returns the current reference count. Diagnostic use only.
func (c *Controller) Refs() int32 { return c.refs.Load() }

// TryPin pins the controller's backing implementation. Controllers without
// a pluggable implementation are always pinned.
func (c *Controller) TryPin() bool {
	if c.impl == nil {
		return true
	}
	return c.impl.TryPin()
}

// Unpin releases one implementation pin.
func (c *Controller) Unpin() {
	if c.impl != nil {
		c.impl.Unpin()
	}
}

func (c *Controller) transfer(addr uint16, w, r []byte) error {
	if c.impl == nil {
		return errors.New("busreg: controller has no implementation")
	}
	return c.impl.Transfer(addr, w, r)
}

// NewDevice instantiates and attaches a device described by info. The
// registry keeps the canonical reference on the returned device.
func (c *Controller) NewDevice(info BoardInfo) (*Device, error) {
	if info.Type == "" {
		return nil, errors.New("busreg: device type required")
	}
	if len(info.Type) > NameSize {
		return nil, fmt.Errorf("busreg: device type %q exceeds %d bytes", info.Type, NameSize)
	}
	if err := checkAddr(info.Addr, info.Flags); err != nil {
		return nil, err
	}

	dev := &Device{
		ctrl:  c,
		name:  info.Type,
		addr:  info.Addr,
		flags: info.Flags,
		node:  info.Node,
	}
	dev.refs.Store(1) // the registry's canonical reference

	c.mu.Lock()
	if c.dead {
		c.mu.Unlock()
		return nil, fmt.Errorf("busreg: controller %q is gone", c.name)
	}
	if _, busy := c.devices[info.Addr]; busy {
		c.mu.Unlock()
		return nil, fmt.Errorf("busreg: address 0x%02x already in use on %q", info.Addr, c.name)
	}
	c.devices[info.Addr] = dev
	c.mu.Unlock()

	if dev.node != nil {
		dev.node.Get() // the device's reference on its description node
	}

	c.reg.addDevice(dev)
	return dev, nil
}

// checkAddr rejects addresses that are invalid for the declared addressing
// mode. Tag bits must already be stripped.
func checkAddr(addr uint16, flags Flags) error {
	if flags&FlagTenBit != 0 {
		if addr > 0x3ff {
			return fmt.Errorf("busreg: invalid ten-bit address 0x%04x", addr)
		}
		return nil
	}
	// Seven-bit: 0x00-0x07 and 0x78-0x7f are reserved.
	if addr < 0x08 || addr > 0x77 {
		return fmt.Errorf("busreg: invalid seven-bit address 0x%02x", addr)
	}
	return nil
}
