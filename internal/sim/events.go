package sim

import "container/heap"

// EventKind identifies a kernel event. The declaration order is the
// authoritative tie-break order for events sharing a timestamp: periodic
// updates first, then arrivals, completions and battery events, then
// departures, and the assignment pass last.
type EventKind int

const (
	EventUpdateStatus EventKind = iota
	EventUpdatePriorities
	EventVehicleArrival
	EventTaskCompletion
	EventBatteryCharged
	EventVehicleDeparture
	EventAssignTasks
)

func (k EventKind) String() string {
	switch k {
	case EventUpdateStatus:
		return "update_status"
	case EventUpdatePriorities:
		return "update_priorities"
	case EventVehicleArrival:
		return "vehicle_arrival"
	case EventTaskCompletion:
		return "task_completion"
	case EventBatteryCharged:
		return "battery_charged"
	case EventVehicleDeparture:
		return "vehicle_departure"
	case EventAssignTasks:
		return "assign_tasks"
	default:
		return "unknown"
	}
}

// Periodic event cadences, in minutes.
const (
	statusPeriod     = 1
	prioritiesPeriod = 5
	assignPeriod     = 2
)

// Event is a timestamped kernel event. Payload fields hold entity ids and
// are model.None when the kind carries no such payload.
type Event struct {
	Time    int
	Kind    EventKind
	Vehicle int
	Robot   int
	Battery int

	seq uint64 // insertion order, the final tie-break
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	if h[i].Kind != h[j].Kind {
		return h[i].Kind < h[j].Kind
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// eventQueue is a min-heap of events with stable insertion-order
// tie-breaking.
type eventQueue struct {
	h       eventHeap
	nextSeq uint64
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	heap.Init(&q.h)
	return q
}

func (q *eventQueue) push(e Event) {
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.h, e)
}

func (q *eventQueue) pop() (Event, bool) {
	if len(q.h) == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.h).(Event), true
}

func (q *eventQueue) len() int { return len(q.h) }
