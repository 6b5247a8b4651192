package events

import (
	"testing"
	"time"
)

func TestTracker_AckCancelsTimeout(t *testing.T) {
	timedOut := make(chan int, 4)
	tr := NewTracker(20*time.Millisecond, func(id int) { timedOut <- id })

	first := tr.Next()
	second := tr.Next()
	if first != 1 || second != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", first, second)
	}
	if !tr.Ack(first) {
		t.Fatalf("Ack(%d) = false, want true", first)
	}
	if tr.Ack(first) {
		t.Fatalf("second Ack(%d) = true, want false", first)
	}

	select {
	case id := <-timedOut:
		if id != second {
			t.Fatalf("timed out id = %d, want %d", id, second)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout hook never fired")
	}
	select {
	case id := <-timedOut:
		t.Fatalf("unexpected timeout for %d", id)
	case <-time.After(50 * time.Millisecond):
	}
	if tr.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", tr.Pending())
	}
}

func TestTracker_ResetKeepsIDsFresh(t *testing.T) {
	tr := NewTracker(0, nil)
	tr.Next()
	tr.Reset()
	if id := tr.Next(); id != 2 {
		t.Fatalf("Next after Reset = %d, want 2", id)
	}
}
