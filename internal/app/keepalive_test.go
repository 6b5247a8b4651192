package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/loom/internal/client"
	"github.com/five82/loom/internal/session"
	"github.com/five82/loom/internal/state"
)

// frameCounter counts outbound frames without decoding them; pings carry no
// window id.
type frameCounter struct{ n atomic.Int32 }

func (f *frameCounter) Send(string) error {
	f.n.Add(1)
	return nil
}

func TestKeepalive_UnansweredPingsMarkOffline(t *testing.T) {
	store := &state.Store{}
	sender := &frameCounter{}
	c := client.New(sender, session.Config{Logger: discardLogger()}, session.Hooks{})
	c.OnPing(store.PingSent)
	c.OnPong(store.PongReceived)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.RunPings(ctx, 5*time.Millisecond) }()

	deadline := time.After(time.Second)
	for sender.n.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d pings sent", sender.n.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunPings returned error: %v", err)
	}

	if !store.Snapshot().IsOffline() {
		t.Fatalf("store not offline after unanswered pings")
	}
	if err := c.HandleRaw(`lona:[null,null,206,null]`); err != nil {
		t.Fatalf("HandleRaw(pong) returned error: %v", err)
	}
	if store.Snapshot().IsOffline() {
		t.Fatalf("store still offline after a pong")
	}
}
