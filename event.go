package digisim

import "container/heap"

// EventKind tags the payload carried by an Event.
type EventKind uint8

const (
	// NodeUpdate writes Value into Node and fans out to dependent
	// gates and flip-flops.
	NodeUpdate EventKind = iota
	// GateRecompute re-evaluates Gate and, if its output changed,
	// schedules the resulting NodeUpdate (even when the delay is zero).
	GateRecompute
	// FlipFlopClockTick evaluates FlipFlop against the clock edge that
	// produced it.
	FlipFlopClockTick
)

// Event is one entry in the EventQueue's time-ordered schedule. Exactly
// one of Node/Gate/FlipFlop is meaningful, selected by Kind.
type Event struct {
	Time int
	Kind EventKind

	Node  *Node
	Value Value

	Gate *Gate

	FlipFlop *FlipFlop

	seq uint64 // insertion order, for FIFO tie-breaking at equal Time
}

// EventQueue is a min-heap over (Time, seq), supporting push, pop and a
// selective cancel-and-revert operation. It implements heap.Interface
// directly, following the standard library's documented pattern for a
// priority queue (see container/heap).
type EventQueue struct {
	items []*Event
	next  uint64
}

// NewEventQueue returns an empty EventQueue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

func (q *EventQueue) Len() int { return len(q.items) }

func (q *EventQueue) Less(i, j int) bool {
	if q.items[i].Time != q.items[j].Time {
		return q.items[i].Time < q.items[j].Time
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *EventQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *EventQueue) Push(x interface{}) {
	q.items = append(q.items, x.(*Event))
}

func (q *EventQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	e := old[n-1]
	q.items = old[:n-1]
	return e
}

// PushEvent schedules e, assigning it the next insertion sequence number so
// that events sharing a Time are popped in FIFO order.
func (q *EventQueue) PushEvent(e *Event) {
	e.seq = q.next
	q.next++
	heap.Push(q, e)
}

// PopMin removes and returns the earliest-scheduled event. It panics if
// the queue is empty; callers must check Empty() or Len() first.
func (q *EventQueue) PopMin() *Event {
	return heap.Pop(q).(*Event)
}

// Empty reports whether the queue has no pending events.
func (q *EventQueue) Empty() bool { return len(q.items) == 0 }

// CancelUpdatesTo removes every pending NodeUpdate targeting node. If
// any were removed, it calls Revert on owningGate — this is the
// inertial-delay cancellation policy: an in-flight transition that
// would land on node is suppressed once a newer input change has
// already returned the gate's output to its pre-transition value.
//
// The heap is rebuilt from scratch on a cancellation. Cancellations are
// rare relative to normal event processing, so the O(n) amortized cost
// is acceptable.
func (q *EventQueue) CancelUpdatesTo(node *Node, owningGate *Gate) {
	kept := make([]*Event, 0, len(q.items))
	removed := false
	for _, e := range q.items {
		if e.Kind == NodeUpdate && e.Node == node {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return
	}
	q.items = kept
	heap.Init(q)
	owningGate.Revert()
}
