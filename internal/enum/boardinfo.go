// internal/enum/boardinfo.go
package enum

import (
	"fmt"

	"github.com/tamzrod/hwenum/internal/busreg"
	"github.com/tamzrod/hwenum/internal/hwtree"
)

// Address tag bits multiplexed into the "reg" property. They are stripped
// into flags before the address is used; an address never carries them.
const (
	tenBitAddr   uint32 = 1 << 31
	ownSlaveAddr uint32 = 1 << 30
)

// GetBoardInfo translates a description node's declared properties into a
// device descriptor. Pure: no side effects on the node or any global state,
// safe to call concurrently on different nodes.
func GetBoardInfo(node *hwtree.Node) (busreg.BoardInfo, error) {
	name, ok := node.Modalias()
	if !ok || len(name) > busreg.NameSize {
		return busreg.BoardInfo{}, fmt.Errorf("%w (node=%s)", ErrInvalidIdentification, node.Name())
	}

	addr, ok := node.PropU32("reg")
	if !ok {
		return busreg.BoardInfo{}, fmt.Errorf("%w (node=%s)", ErrMissingAddress, node.Name())
	}

	info := busreg.BoardInfo{Type: name, Node: node}

	if addr&tenBitAddr != 0 {
		addr &^= tenBitAddr
		info.Flags |= busreg.FlagTenBit
	}
	if addr&ownSlaveAddr != 0 {
		addr &^= ownSlaveAddr
		info.Flags |= busreg.FlagOwnSlave
	}
	info.Addr = uint16(addr)

	if node.PropBool("host-notify") {
		info.Flags |= busreg.FlagHostNotify
	}
	if node.HasProp("wakeup-source") {
		info.Flags |= busreg.FlagWake
	}

	return info, nil
}
