package session

import (
	"encoding/json"
	"fmt"

	"github.com/five82/loom/internal/protocol"
)

// HandleMessage processes one inbound message addressed to this window. It
// must be called from a single goroutine in arrival order. Tree work is only
// queued; HandleMessage never waits for a render.
//
// Control messages are processed whatever runtime id they carry. Everything
// else is dropped unless it carries the runtime id adopted on view start.
// Errors returned here have already crashed the window.
func (w *Window) HandleMessage(msg protocol.Message) error {
	w.stateMu.Lock()
	if w.state == StateCrashed {
		w.stateMu.Unlock()
		return nil
	}

	switch msg.Method {
	case protocol.MethodPong:
		w.stateMu.Unlock()
		return nil

	case protocol.MethodViewStart:
		w.stopViewTimerLocked()
		w.runtimeID = msg.RuntimeID
		w.state = StateViewRunning
		addr := w.url
		w.stateMu.Unlock()

		w.logger.Info("view started", "runtime_id", msg.RuntimeID, "url", addr)
		if w.cfg.UpdateAddressBar && w.hooks.OnAddress != nil {
			w.hooks.OnAddress(w, addr)
		}
		w.submit("view start", w.engine.Reset)
		return nil

	case protocol.MethodViewStop:
		if msg.RuntimeID != w.runtimeID {
			w.stateMu.Unlock()
			w.logger.Debug("ignoring view stop of superseded runtime", "runtime_id", msg.RuntimeID)
			return nil
		}
		if w.state == StateViewRunning {
			w.state = StateViewStopped
		}
		w.stateMu.Unlock()
		w.logger.Info("view stopped", "runtime_id", msg.RuntimeID)
		return nil

	case protocol.MethodRedirect:
		w.stateMu.Unlock()
		target, err := decodeURL(msg.Payload)
		if err != nil {
			return w.Crash(fmt.Errorf("redirect: %w", err))
		}
		if !w.cfg.FollowRedirects {
			w.logger.Info("redirect skipped", "url", target)
			return nil
		}
		if err := w.RunView(target, nil); err != nil {
			return w.Crash(err)
		}
		return nil

	case protocol.MethodHTTPRedirect:
		w.stateMu.Unlock()
		target, err := decodeURL(msg.Payload)
		if err != nil {
			return w.Crash(fmt.Errorf("http redirect: %w", err))
		}
		if !w.cfg.FollowHTTPRedirects {
			w.logger.Info("http redirect skipped", "url", target)
			return nil
		}
		w.logger.Info("http redirect", "url", target)
		if w.hooks.OnNavigate != nil {
			w.hooks.OnNavigate(w, target)
		}
		return nil

	case protocol.MethodClientError:
		w.stateMu.Unlock()
		w.logger.Warn("server reported a client error", "payload", string(msg.Payload))
		return nil
	}

	if w.runtimeID == "" || msg.RuntimeID != w.runtimeID {
		current := w.runtimeID
		w.stateMu.Unlock()
		w.logger.Debug("dropping stale message", "method", msg.Method, "runtime_id", msg.RuntimeID, "current", current)
		return nil
	}
	runtime := w.runtimeID
	w.stateMu.Unlock()

	switch msg.Method {
	case protocol.MethodData:
		title, display, err := protocol.DecodeData(msg.Payload)
		if err != nil {
			return w.Crash(err)
		}
		w.submit("render", func() error { return w.render(runtime, title, display) })
		return nil

	case protocol.MethodInputEventAck:
		var eventID int
		if err := json.Unmarshal(msg.Payload, &eventID); err != nil {
			w.logger.Warn("malformed input event ack", "payload", string(msg.Payload))
			return nil
		}
		if !w.tracker.Ack(eventID) {
			w.logger.Debug("ack for unknown input event", "event_id", eventID)
		}
		return nil

	default:
		w.logger.Debug("ignoring message", "method", msg.Method)
		return nil
	}
}

// render runs as a job. Data accepted for one runtime is skipped when the
// window has moved on before the job got its turn.
func (w *Window) render(runtime, title string, display *protocol.Display) error {
	w.stateMu.Lock()
	current := w.runtimeID
	if current == runtime && w.cfg.UpdateTitle && title != "" {
		w.title = title
	}
	w.stateMu.Unlock()
	if current != runtime {
		w.logger.Debug("skipping render for superseded runtime", "runtime_id", runtime)
		return nil
	}

	if w.cfg.UpdateTitle && title != "" && w.hooks.OnTitle != nil {
		w.hooks.OnTitle(w, title)
	}
	if display != nil {
		if err := w.engine.Show(display); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	if w.hooks.OnRendered != nil {
		w.hooks.OnRendered(w, w.doc)
	}
	return nil
}

func decodeURL(payload json.RawMessage) (string, error) {
	var target string
	if err := json.Unmarshal(payload, &target); err != nil {
		return "", fmt.Errorf("decode url: %w", err)
	}
	return target, nil
}
