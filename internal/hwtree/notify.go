// internal/hwtree/notify.go
package hwtree

// EventKind classifies a tree mutation.
type EventKind int

const (
	// NodeAdded fires after a node is linked into the graph.
	NodeAdded EventKind = iota

	// NodeRemoved fires before a node is unlinked, while lookups keyed on
	// it still resolve.
	NodeRemoved
)

func (k EventKind) String() string {
	switch k {
	case NodeAdded:
		return "node-added"
	case NodeRemoved:
		return "node-removed"
	default:
		return "unknown"
	}
}

// Event carries one tree mutation to subscribers. Node is borrowed for the
// duration of the callback.
type Event struct {
	Kind EventKind
	Node *Node
}

// Outcome is a subscriber's verdict on an event.
type Outcome struct {
	Status Status
	Err    error
}

// Status tells the tree whether a subscriber claimed the event.
type Status int

const (
	// StatusNotHandled means the event was not addressed to this subscriber.
	StatusNotHandled Status = iota

	// StatusHandled means the subscriber consumed the event.
	StatusHandled
)

// Handled reports the event as consumed without error.
func Handled() Outcome { return Outcome{Status: StatusHandled} }

// NotHandled reports the event as not applicable. Not a failure.
func NotHandled() Outcome { return Outcome{Status: StatusNotHandled} }

// Fail reports the event as consumed but failed, propagating err to the
// mutation's initiator.
func Fail(err error) Outcome { return Outcome{Status: StatusHandled, Err: err} }

// Handler receives tree mutation events. Handlers must be safe to invoke
// concurrently with traversals of the same tree.
type Handler func(Event) Outcome

// Subscribe registers a handler for subsequent mutations and returns a
// cancel function.
func (t *Tree) Subscribe(fn Handler) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// notify invokes every subscriber synchronously and returns the first
// failure, if any.
func (t *Tree) notify(ev Event) error {
	t.mu.Lock()
	handlers := make([]Handler, 0, len(t.subs))
	for _, fn := range t.subs {
		handlers = append(handlers, fn)
	}
	t.mu.Unlock()

	var first error
	for _, fn := range handlers {
		if out := fn(ev); out.Err != nil && first == nil {
			first = out.Err
		}
	}
	return first
}
