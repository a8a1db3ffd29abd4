// internal/hwtree/notify_test.go
package hwtree

import (
	"errors"
	"testing"
)

type recorded struct {
	kind EventKind
	name string
}

func TestAttachDetachEvents(t *testing.T) {
	tree := NewTree("bus@0", nil)

	var seen []recorded
	cancel := tree.Subscribe(func(ev Event) Outcome {
		seen = append(seen, recorded{ev.Kind, ev.Node.Name()})
		return Handled()
	})
	defer cancel()

	n := tree.NewNode("sensor@50", nil)
	if err := tree.AttachNode(tree.Root(), n); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := tree.DetachNode(n); err != nil {
		t.Fatalf("detach: %v", err)
	}

	want := []recorded{
		{NodeAdded, "sensor@50"},
		{NodeRemoved, "sensor@50"},
	}
	if len(seen) != len(want) {
		t.Fatalf("events=%v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestRemoveEventSeesLinkedNode(t *testing.T) {
	tree := NewTree("bus@0", nil)
	n := tree.NewNode("sensor@50", nil)
	if err := tree.AttachNode(tree.Root(), n); err != nil {
		t.Fatalf("attach: %v", err)
	}

	cancel := tree.Subscribe(func(ev Event) Outcome {
		if ev.Kind != NodeRemoved {
			return NotHandled()
		}
		// The node must still resolve through the graph while the removal
		// notification runs.
		if ev.Node.Parent() == nil {
			t.Error("remove event fired after unlink")
		}
		return Handled()
	})
	defer cancel()

	if err := tree.DetachNode(n); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if n.Parent() != nil {
		t.Fatal("node must be unlinked after detach")
	}
	if n.Available() {
		t.Fatal("detached node must not be available")
	}
}

func TestSubscriberFailurePropagates(t *testing.T) {
	tree := NewTree("bus@0", nil)
	boom := errors.New("boom")

	cancel := tree.Subscribe(func(ev Event) Outcome { return Fail(boom) })
	defer cancel()

	n := tree.NewNode("sensor@50", nil)
	if err := tree.AttachNode(tree.Root(), n); !errors.Is(err, boom) {
		t.Fatalf("attach err=%v, want boom", err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	tree := NewTree("bus@0", nil)

	calls := 0
	cancel := tree.Subscribe(func(ev Event) Outcome {
		calls++
		return Handled()
	})

	n := tree.NewNode("a", nil)
	if err := tree.AttachNode(tree.Root(), n); err != nil {
		t.Fatalf("attach: %v", err)
	}
	cancel()

	m := tree.NewNode("b", nil)
	if err := tree.AttachNode(tree.Root(), m); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
}

func TestFindByPath(t *testing.T) {
	tree := NewTree("bus@0", nil)
	mid := tree.NewNode("bus-container", nil)
	leaf := tree.NewNode("sensor@50", nil)
	if err := tree.AttachNode(tree.Root(), mid); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := tree.AttachNode(mid, leaf); err != nil {
		t.Fatalf("attach: %v", err)
	}

	got := tree.FindByPath("bus-container", "sensor@50")
	if got != leaf {
		t.Fatal("FindByPath missed the leaf")
	}
	got.Put()

	if tree.FindByPath("bus-container", "nope") != nil {
		t.Fatal("FindByPath must miss on unknown component")
	}

	root := tree.FindByPath()
	if root != tree.Root() {
		t.Fatal("empty path must resolve the root")
	}
	root.Put()
}
