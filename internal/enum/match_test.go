// internal/enum/match_test.go
package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/hwenum/internal/busreg"
	"github.com/tamzrod/hwenum/internal/hwtree"
)

func registeredDevice(t *testing.T, compat string, withNode bool) *busreg.Device {
	t.Helper()
	tree := hwtree.NewTree("bus@0", nil)

	n := tree.NewNode("dev", map[string]any{"compatible": compat, "reg": uint32(0x50)})

	info, err := GetBoardInfo(n)
	require.NoError(t, err)
	if !withNode {
		info.Node = nil
	}

	reg := busreg.NewRegistry()
	ctrl, err := reg.AddController("gw0", nil, nil)
	require.NoError(t, err)
	dev, err := ctrl.NewDevice(info)
	require.NoError(t, err)
	return dev
}

func TestMatchDeviceByNode(t *testing.T) {
	dev := registeredDevice(t, "acme,sensor", true)
	table := []DeviceID{
		{Compatible: "other,widget"},
		{Compatible: "acme,sensor", Data: "hit"},
	}

	m := MatchDevice(table, dev)
	require.NotNil(t, m)
	assert.Equal(t, "hit", m.Data)
}

func TestMatchDeviceNameFallback(t *testing.T) {
	// Instantiated without a description node: only the plain name
	// ("sensor") is available for matching.
	dev := registeredDevice(t, "acme,sensor", false)

	table := []DeviceID{{Compatible: "acme,sensor", Data: "fallback"}}
	m := MatchDevice(table, dev)
	require.NotNil(t, m, "name must match the substring after the vendor comma")
	assert.Equal(t, "fallback", m.Data)

	// Full-string fallback, case-insensitive.
	m = MatchDevice([]DeviceID{{Compatible: "SENSOR"}}, dev)
	require.NotNil(t, m)

	// Vendor prefix alone never matches.
	assert.Nil(t, MatchDevice([]DeviceID{{Compatible: "acme,"}}, dev))
	assert.Nil(t, MatchDevice([]DeviceID{{Compatible: "other,widget"}}, dev))
}

func TestMatchDeviceNodePriority(t *testing.T) {
	dev := registeredDevice(t, "acme,sensor", true)

	// Both entries would match by name; the node-based strategy must pick
	// the exact compatible first.
	table := []DeviceID{
		{Compatible: "Sensor", Data: "name"},
		{Compatible: "acme,sensor", Data: "node"},
	}
	m := MatchDevice(table, dev)
	require.NotNil(t, m)
	assert.Equal(t, "node", m.Data)
}

func TestMatchDeviceAbsentArguments(t *testing.T) {
	dev := registeredDevice(t, "acme,sensor", true)

	assert.Nil(t, MatchDevice(nil, dev))
	assert.Nil(t, MatchDevice([]DeviceID{{Compatible: "acme,sensor"}}, nil))
}
