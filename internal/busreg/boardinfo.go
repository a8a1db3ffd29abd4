// internal/busreg/boardinfo.go
package busreg

import "github.com/tamzrod/hwenum/internal/hwtree"

// NameSize is the maximum length of a device identification string.
const NameSize = 20

// Flags qualify how a device sits on its bus.
type Flags uint16

const (
	// FlagTenBit marks a device using ten-bit addressing.
	FlagTenBit Flags = 1 << iota

	// FlagOwnSlave marks an address the controller itself answers on.
	FlagOwnSlave

	// FlagHostNotify marks a device using host-notify signalling.
	FlagHostNotify

	// FlagWake marks a device that can wake the system.
	FlagWake
)

// BoardInfo is the ephemeral descriptor used to instantiate one device.
// It is built fresh per registration attempt and never stored.
type BoardInfo struct {
	// Type identifies the device kind, at most NameSize bytes.
	Type string

	// Addr is the bus address with all tag bits stripped.
	Addr uint16

	Flags Flags

	// Node is the originating description node, nil for devices declared
	// outside the description tree.
	Node *hwtree.Node
}
