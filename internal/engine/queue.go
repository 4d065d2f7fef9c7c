// Package engine holds the discrete-event clock and scheduler that drives a
// simulation run. Events are kept in a min-heap ordered by time and then by
// insertion sequence, so actions scheduled for the same instant run FIFO.
package engine

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSchedule is returned when an event is scheduled before the
// current clock. It always indicates a bug in the caller.
var ErrInvalidSchedule = errors.New("engine: event scheduled in the past")

// ScheduleError carries the offending and current times of a rejected event.
type ScheduleError struct {
	At  float64
	Now float64
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("%v: at=%g now=%g", ErrInvalidSchedule, e.At, e.Now)
}

func (e *ScheduleError) Unwrap() error { return ErrInvalidSchedule }

// Action is the body of an event. It runs with the clock set to the event time.
type Action func()

// Event is one scheduled action. It is consumed exactly once.
type Event struct {
	Time      float64
	seq       uint64
	action    Action
	cancelled bool
}

// Cancel marks the event so its action is skipped when it comes due.
// The event stays in the queue until then.
func (e *Event) Cancel() { e.cancelled = true }

// Cancelled reports whether Cancel was called.
func (e *Event) Cancelled() bool { return e.cancelled }

// eventHeap implements heap.Interface ordered by (Time, seq).
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// Queue owns the simulation clock and the pending events.
type Queue struct {
	now      float64
	seq      uint64
	executed uint64
	events   eventHeap
}

// New returns an empty queue with the clock at zero.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.events)
	return q
}

// Now returns the current simulated time in seconds.
func (q *Queue) Now() float64 { return q.now }

// Pending returns the number of events still queued, cancelled ones included.
func (q *Queue) Pending() int { return len(q.events) }

// Executed returns how many actions have run so far.
func (q *Queue) Executed() uint64 { return q.executed }

// NextTime returns the time of the earliest pending event.
func (q *Queue) NextTime() (float64, bool) {
	if len(q.events) == 0 {
		return 0, false
	}
	return q.events[0].Time, true
}

// Schedule inserts an action at absolute time at.
func (q *Queue) Schedule(at float64, action Action) (*Event, error) {
	if math.IsNaN(at) || at < q.now {
		return nil, &ScheduleError{At: at, Now: q.now}
	}
	q.seq++
	ev := &Event{Time: at, seq: q.seq, action: action}
	heap.Push(&q.events, ev)
	return ev, nil
}

// After schedules an action delay seconds from now.
func (q *Queue) After(delay float64, action Action) (*Event, error) {
	return q.Schedule(q.now+delay, action)
}

// MustSchedule is like Schedule but panics if the event lies in the past.
func (q *Queue) MustSchedule(at float64, action Action) *Event {
	ev, err := q.Schedule(at, action)
	if err != nil {
		panic(err)
	}
	return ev
}

// RunUntil executes events in (time, insertion) order until the queue is
// empty or the next event lies after end. That event is left in place.
// It returns the number of actions executed.
func (q *Queue) RunUntil(end float64) int {
	n := 0
	for len(q.events) > 0 {
		if q.events[0].Time > end {
			break
		}
		ev := heap.Pop(&q.events).(*Event)
		q.now = ev.Time
		if ev.cancelled || ev.action == nil {
			continue
		}
		ev.action()
		q.executed++
		n++
	}
	return n
}
