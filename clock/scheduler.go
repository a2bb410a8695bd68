package clock

import (
	"container/heap"
	"math"
	"sync"
	"time"
)

// ID identifies a scheduled event for cancellation
// Zero is never issued
type ID uint64

type event struct {
	at    time.Duration
	seq   uint64
	id    ID
	fn    func()
	index int
}

// eventHeap orders by deadline, then by scheduling order
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*event)
	ev.index = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*h = old[:n-1]
	return ev
}

// Scheduler is a virtual-time event queue
// Time only moves when the owner calls Advance/AdvanceTo; nothing sleeps
// Callbacks run on the advancing goroutine with no internal lock held, so they may schedule or cancel freely
type Scheduler struct {
	mu    sync.Mutex
	now   time.Duration
	queue eventHeap
	byID  map[ID]*event
	seq   uint64
}

// New creates a scheduler at time zero
func New() *Scheduler {
	return &Scheduler{
		byID: make(map[ID]*event),
	}
}

// Now returns the current virtual time
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// At schedules fn at absolute time t
// Past deadlines fire on the next advance, in scheduling order
func (s *Scheduler) At(t time.Duration, fn func()) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ev := &event{at: t, seq: s.seq, id: ID(s.seq), fn: fn}
	heap.Push(&s.queue, ev)
	s.byID[ev.id] = ev
	return ev.id
}

// After schedules fn at now+d
func (s *Scheduler) After(d time.Duration, fn func()) ID {
	s.mu.Lock()
	t := s.now + d
	s.mu.Unlock()
	return s.At(t, fn)
}

// Cancel removes a pending event, returns false if it already fired or was cancelled
func (s *Scheduler) Cancel(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, ev.index)
	delete(s.byID, id)
	return true
}

// Pending returns the number of scheduled events
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Next returns the earliest pending deadline
func (s *Scheduler) Next() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].at, true
}

// AdvanceTo fires every event with deadline <= t in deadline order and returns the count fired
// Time observed inside a callback equals that event's deadline (or now, for past deadlines)
// Time never moves backwards
func (s *Scheduler) AdvanceTo(t time.Duration) int {
	fired := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].at > t {
			if t > s.now {
				s.now = t
			}
			s.mu.Unlock()
			return fired
		}

		ev := heap.Pop(&s.queue).(*event)
		delete(s.byID, ev.id)
		if ev.at > s.now {
			s.now = ev.at
		}
		s.mu.Unlock()

		ev.fn()
		fired++
	}
}

// Advance moves time forward by d, firing due events
func (s *Scheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	t := s.now + d
	s.mu.Unlock()
	return s.AdvanceTo(t)
}

// Seconds converts audio-clock seconds to a scheduler time
func Seconds(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}
