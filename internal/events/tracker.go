package events

import (
	"sync"
	"time"
)

// Tracker hands out event ids and watches for their acks. Ids increase for
// the lifetime of the tracker and are never reused.
type Tracker struct {
	timeout   time.Duration
	onTimeout func(eventID int)

	mu      sync.Mutex
	next    int
	pending map[int]*time.Timer
}

// NewTracker returns a tracker that calls onTimeout for events not acked
// within timeout. A zero timeout disables the timers.
func NewTracker(timeout time.Duration, onTimeout func(eventID int)) *Tracker {
	return &Tracker{
		timeout:   timeout,
		onTimeout: onTimeout,
		next:      1,
		pending:   make(map[int]*time.Timer),
	}
}

// Next allocates a fresh event id and arms its ack timer.
func (t *Tracker) Next() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++
	if t.timeout > 0 {
		t.pending[id] = time.AfterFunc(t.timeout, func() { t.expire(id) })
	}
	return id
}

// Ack cancels the timer of eventID and reports whether it was pending.
func (t *Tracker) Ack(eventID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.pending[eventID]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.pending, eventID)
	return true
}

// Pending returns the number of events waiting for an ack.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Reset cancels every pending timer.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.pending {
		timer.Stop()
		delete(t.pending, id)
	}
}

func (t *Tracker) expire(id int) {
	t.mu.Lock()
	_, ok := t.pending[id]
	delete(t.pending, id)
	t.mu.Unlock()

	if ok && t.onTimeout != nil {
		t.onTimeout(id)
	}
}
