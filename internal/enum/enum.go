// internal/enum/enum.go

// Package enum instantiates bus devices from the hardware-description tree
// and keeps the instantiation synchronized as the tree changes at runtime.
//
// Three actors race over the same nodes: the initial subtree walk at
// controller attach, asynchronous tree-change notifications, and device
// teardown. At-most-once instantiation per node is guaranteed solely by the
// node's populated marker, taken with an atomic test-and-set on every path.
package enum

import (
	"errors"

	"github.com/tamzrod/hwenum/internal/busreg"
)

var (
	// ErrInvalidIdentification means the node's identification property is
	// absent or malformed.
	ErrInvalidIdentification = errors.New("enum: invalid identification property")

	// ErrMissingAddress means the node lacks the mandatory "reg" property.
	ErrMissingAddress = errors.New("enum: missing address property")

	// ErrRegistrationFailed means the registry rejected instantiation.
	// Terminal for the node at this time; callers roll back the populated
	// marker.
	ErrRegistrationFailed = errors.New("enum: device registration failed")
)

// Enumerator drives device instantiation against one registry.
type Enumerator struct {
	reg *busreg.Registry
}

// New creates an enumerator bound to the given registry.
func New(reg *busreg.Registry) *Enumerator {
	return &Enumerator{reg: reg}
}

// PutController releases a controller obtained from GetControllerByNode:
// one implementation unpin and one reference drop.
func PutController(ctrl *busreg.Controller) {
	ctrl.Unpin()
	ctrl.Put()
}
