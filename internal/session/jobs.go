package session

import (
	"github.com/five82/loom/internal/protocol"
)

// submit queues fn as a tree job. A job that fails marks the window crashed
// before releasing the queue, so later jobs turn into no-ops; the crash is
// reported once the queue has moved on.
func (w *Window) submit(name string, fn func() error) <-chan error {
	result := w.queue.Submit(func() error {
		if w.Crashed() {
			return nil
		}
		failed := true
		defer func() {
			if failed {
				w.markCrashed()
			}
		}()
		err := fn()
		failed = err != nil
		return err
	})

	out := make(chan error, 1)
	go func() {
		err := <-result
		if err != nil {
			w.logger.Debug("job failed", "job", name)
			w.report(err)
		}
		out <- err
	}()
	return out
}

// Crash moves the window into its terminal state, reports err to the server
// and the crash hook, and returns err.
func (w *Window) Crash(err error) error {
	w.markCrashed()
	w.report(err)
	return err
}

func (w *Window) markCrashed() {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	if w.state != StateCrashed {
		w.state = StateCrashed
		w.stopViewTimerLocked()
	}
}

func (w *Window) report(err error) {
	w.stateMu.Lock()
	if w.reported {
		w.stateMu.Unlock()
		return
	}
	w.reported = true
	w.crashErr = err
	runtime := w.runtimeID
	w.stateMu.Unlock()

	w.logger.Error("window crashed", "error", err)
	w.tracker.Reset()
	if sendErr := w.sendAs(runtime, protocol.MethodClientError, []any{err.Error()}); sendErr != nil {
		w.logger.Warn("reporting crash", "error", sendErr)
	}
	if w.hooks.OnCrash != nil {
		w.hooks.OnCrash(w, err)
	}
}

// send frames a message for the current runtime. Transport failures are
// logged and swallowed; sends are fire-and-forget.
func (w *Window) send(method protocol.Method, payload any) error {
	return w.sendAs(w.RuntimeID(), method, payload)
}

func (w *Window) sendAs(runtime string, method protocol.Method, payload any) error {
	message, err := protocol.Encode(w.id, runtime, method, payload)
	if err != nil {
		return err
	}
	if err := w.sender.Send(message); err != nil {
		w.logger.Warn("send failed", "method", method, "error", err)
	}
	return nil
}

// FireEvent sends an input event and arms its ack timer. Crashed windows
// send nothing.
func (w *Window) FireEvent(typ protocol.EventType, data any, source, target []any) error {
	w.stateMu.Lock()
	if w.state == StateCrashed {
		w.stateMu.Unlock()
		return nil
	}
	runtime := w.runtimeID
	w.stateMu.Unlock()

	eventID := w.tracker.Next()
	w.logger.Debug("firing input event", "event_id", eventID, "type", typ)
	return w.sendAs(runtime, protocol.MethodInputEvent, []any{eventID, int(typ), data, source, target})
}

// Navigate starts a new view on behalf of a link or form.
func (w *Window) Navigate(rawURL string, post map[string]any) error {
	return w.RunView(rawURL, post)
}

// Schedule queues a deferred job such as a debounced change event.
func (w *Window) Schedule(job func() error) {
	w.submit("scheduled", job)
}

// FireCustomEvent lets a component send a custom input event.
func (w *Window) FireCustomEvent(nodeID string, data any) error {
	return w.capture.FireCustom(nodeID, data)
}
