// internal/enum/register_test.go
package enum

import (
	"fmt"
	"sync"
	"testing"

	"github.com/tamzrod/hwenum/internal/busreg"
	"github.com/tamzrod/hwenum/internal/hwtree"
)

func deviceProps(compat string, reg uint32) map[string]any {
	return map[string]any{"compatible": compat, "reg": reg}
}

// newFixture builds a tree with the given device nodes under root, a
// registry, a controller rooted at the tree, and an enumerator.
func newFixture(t *testing.T, nodes ...map[string]any) (*hwtree.Tree, *busreg.Registry, *busreg.Controller, *Enumerator) {
	t.Helper()
	tree := hwtree.NewTree("bus@0", nil)
	for i, props := range nodes {
		n := tree.NewNode(fmt.Sprintf("dev%d", i), props)
		if err := tree.AttachNode(tree.Root(), n); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}

	reg := busreg.NewRegistry()
	ctrl, err := reg.AddController("gw0", tree.Root(), nil)
	if err != nil {
		t.Fatalf("AddController: %v", err)
	}
	return tree, reg, ctrl, New(reg)
}

func TestRegisterDevicesPopulates(t *testing.T) {
	tree, reg, ctrl, e := newFixture(t,
		deviceProps("acme,sensor", 0x50),
		deviceProps("acme,eeprom", 0x52),
	)

	rootRefs := tree.Root().Refs()
	e.RegisterDevices(ctrl)

	devs := reg.Devices()
	if len(devs) != 2 {
		t.Fatalf("devices=%d, want 2", len(devs))
	}
	if devs[0].Name() != "sensor" || devs[0].Addr() != 0x50 {
		t.Fatalf("first device wrong: %s@%#x", devs[0].Name(), devs[0].Addr())
	}
	if tree.Root().Refs() != rootRefs {
		t.Fatal("walk must balance its enumeration-root reference")
	}

	for _, n := range tree.Root().Children() {
		if !n.Populated() {
			t.Errorf("node %s not marked populated", n.Name())
		}
		n.Put()
	}
}

func TestRegisterDevicesIdempotent(t *testing.T) {
	_, reg, ctrl, e := newFixture(t, deviceProps("acme,sensor", 0x50))

	e.RegisterDevices(ctrl)
	e.RegisterDevices(ctrl)

	if n := len(reg.Devices()); n != 1 {
		t.Fatalf("devices=%d after double populate, want 1", n)
	}
}

func TestRegisterDevicesSkipsFailingNode(t *testing.T) {
	// 0x03 is a reserved seven-bit address: the registry rejects it.
	tree, reg, ctrl, e := newFixture(t,
		deviceProps("acme,broken", 0x03),
		deviceProps("acme,sensor", 0x50),
	)

	e.RegisterDevices(ctrl)

	devs := reg.Devices()
	if len(devs) != 1 || devs[0].Name() != "sensor" {
		t.Fatalf("one failing node must not abort the walk, devices=%d", len(devs))
	}

	broken := tree.FindByPath("dev0")
	defer broken.Put()
	if broken.Populated() {
		t.Fatal("failed registration must roll the marker back")
	}

	good := tree.FindByPath("dev1")
	defer good.Put()
	if !good.Populated() {
		t.Fatal("successful registration must leave the marker set")
	}
}

func TestRegisterDevicesSkipsUnavailable(t *testing.T) {
	props := deviceProps("acme,sensor", 0x50)
	props["status"] = "disabled"
	_, reg, ctrl, e := newFixture(t, props, deviceProps("acme,eeprom", 0x52))

	e.RegisterDevices(ctrl)
	if n := len(reg.Devices()); n != 1 {
		t.Fatalf("disabled node must be skipped, devices=%d", n)
	}
}

func TestRegisterDevicesBusContainer(t *testing.T) {
	tree := hwtree.NewTree("bus@0", nil)
	container := tree.NewNode("bus-container", nil)
	if err := tree.AttachNode(tree.Root(), container); err != nil {
		t.Fatalf("attach: %v", err)
	}
	// A sibling outside the container must not be enumerated.
	stray := tree.NewNode("stray", deviceProps("acme,stray", 0x60))
	if err := tree.AttachNode(tree.Root(), stray); err != nil {
		t.Fatalf("attach: %v", err)
	}
	inside := tree.NewNode("sensor@50", deviceProps("acme,sensor", 0x50))
	if err := tree.AttachNode(container, inside); err != nil {
		t.Fatalf("attach: %v", err)
	}

	reg := busreg.NewRegistry()
	ctrl, _ := reg.AddController("gw0", tree.Root(), nil)

	containerRefs := container.Refs()
	New(reg).RegisterDevices(ctrl)

	devs := reg.Devices()
	if len(devs) != 1 || devs[0].Name() != "sensor" {
		t.Fatalf("enumeration root must be the bus container, devices=%d", len(devs))
	}
	if container.Refs() != containerRefs {
		t.Fatal("walk must release the container reference")
	}
}

func TestRegisterDevicesNoNode(t *testing.T) {
	reg := busreg.NewRegistry()
	ctrl, _ := reg.AddController("bare", nil, nil)

	New(reg).RegisterDevices(ctrl) // must not panic or register anything
	if len(reg.Devices()) != 0 {
		t.Fatal("controller without a description node must be a no-op")
	}
}

// TestPopulateRacesNotifier drives RegisterDevices concurrently with add
// notifications for the same nodes: every node must yield exactly one
// device, whichever path wins its marker.
func TestPopulateRacesNotifier(t *testing.T) {
	const nodes = 16

	props := make([]map[string]any, nodes)
	for i := range props {
		props[i] = deviceProps("acme,sensor", uint32(0x20+i))
	}
	tree, reg, ctrl, e := newFixture(t, props...)

	children := tree.Root().Children()
	defer func() {
		for _, c := range children {
			c.Put()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.RegisterDevices(ctrl)
	}()
	go func() {
		defer wg.Done()
		for _, c := range children {
			e.Notify(hwtree.Event{Kind: hwtree.NodeAdded, Node: c})
		}
	}()
	wg.Wait()

	if n := len(reg.Devices()); n != nodes {
		t.Fatalf("devices=%d, want exactly %d (one per node, never zero, never two)", n, nodes)
	}
}
