// internal/enum/match.go
package enum

import (
	"strings"

	"github.com/tamzrod/hwenum/internal/busreg"
)

// DeviceID is one entry in a driver's table of supported devices.
type DeviceID struct {
	// Compatible is the full identification string, optionally prefixed
	// with "vendor,".
	Compatible string

	// Data is opaque per-entry driver data.
	Data any
}

// matchStrategy tries one identity-matching scheme against a table.
type matchStrategy func(table []DeviceID, dev *busreg.Device) *DeviceID

// Strategies are tried in fixed priority order: description-node identity
// first, plain name fallback second.
var matchStrategies = []matchStrategy{matchByNode, matchByName}

// MatchDevice determines whether dev matches an entry of table and returns
// the first match, or nil. Matching is optional: a nil device or empty
// table matches nothing and is not an error.
func MatchDevice(table []DeviceID, dev *busreg.Device) *DeviceID {
	if dev == nil || len(table) == 0 {
		return nil
	}
	for _, match := range matchStrategies {
		if m := match(table, dev); m != nil {
			return m
		}
	}
	return nil
}

// matchByNode matches through the device's description node, when it has
// one. Node matching is exact on the full compatible string.
func matchByNode(table []DeviceID, dev *busreg.Device) *DeviceID {
	node := dev.Node()
	if node == nil {
		return nil
	}
	for i := range table {
		if node.IsCompatible(table[i].Compatible) {
			return &table[i]
		}
	}
	return nil
}

// matchByName matches the device's plain identification string against the
// table. Devices instantiated without a description node still carry a
// name that may correspond to a table compatible, either in full or after
// the vendor prefix.
func matchByName(table []DeviceID, dev *busreg.Device) *DeviceID {
	for i := range table {
		compat := table[i].Compatible
		if strings.EqualFold(dev.Name(), compat) {
			return &table[i]
		}
		if j := strings.IndexByte(compat, ','); j >= 0 && strings.EqualFold(dev.Name(), compat[j+1:]) {
			return &table[i]
		}
	}
	return nil
}
