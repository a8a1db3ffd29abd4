// internal/gateway/adapter.go

// Package gateway backs a bus controller with a Modbus TCP bus gateway.
// Such gateways expose each attached peripheral as a window of holding
// registers indexed by bus address; a device transaction becomes a register
// write followed by a register read inside the device's window.
package gateway

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// windowRegs is the per-device register window size the gateway exposes.
const windowRegs = 64

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   byte
	Timeout  time.Duration
}

// Adapter is a single TCP connection to one gateway endpoint. It
// implements busreg.Impl. Requests are serialized: the handler is stateful
// and one transaction runs at a time.
type Adapter struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
	pins    int
	closed  bool
}

// New creates a connected gateway adapter.
func New(cfg Config) (*Adapter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("gateway: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Adapter{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// TryPin takes one pin, preventing Close while the adapter is in use.
// Fails once the adapter is closed.
func (a *Adapter) TryPin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	a.pins++
	return true
}

// Unpin releases one pin.
func (a *Adapter) Unpin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pins == 0 {
		panic("gateway: unpin without matching pin")
	}
	a.pins--
}

// Close closes the TCP connection. Refused while any pin is held.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pins > 0 {
		return fmt.Errorf("gateway: adapter busy (%d pins held)", a.pins)
	}
	a.closed = true
	return a.handler.Close()
}

// Transfer performs one write-then-read transaction inside the register
// window of the device at addr. Either buffer may be empty.
func (a *Adapter) Transfer(addr uint16, w, r []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return errors.New("gateway: adapter closed")
	}

	base := addr * windowRegs

	if len(w) > 0 {
		regs := packRegisters(w)
		if uint16(len(regs)/2) > windowRegs {
			return fmt.Errorf("gateway: write of %d bytes exceeds device window", len(w))
		}
		if _, err := a.client.WriteMultipleRegisters(base, uint16(len(regs)/2), regs); err != nil {
			return err
		}
	}

	if len(r) > 0 {
		qty := uint16((len(r) + 1) / 2)
		if qty > windowRegs {
			return fmt.Errorf("gateway: read of %d bytes exceeds device window", len(r))
		}
		raw, err := a.client.ReadHoldingRegisters(base, qty)
		if err != nil {
			return err
		}
		unpackRegisters(raw, r)
	}

	return nil
}

// packRegisters packs bytes big-endian into register payload, padding an
// odd tail byte with zero.
func packRegisters(data []byte) []byte {
	n := (len(data) + 1) / 2
	out := make([]byte, n*2)
	copy(out, data)
	return out
}

// unpackRegisters copies register payload into dst, truncating to fit.
func unpackRegisters(raw []byte, dst []byte) {
	copy(dst, raw)
}
