package session

import (
	"fmt"
	"net/url"
	"time"

	"github.com/five82/loom/internal/protocol"
)

// RunView requests rawURL from the server, optionally posting form data. It
// resets the runtime id, so nothing from the previous view is rendered once
// the call returns, and queues a reset of the display tree behind any render
// already in flight. Calling RunView on a crashed window does nothing.
func (w *Window) RunView(rawURL string, post map[string]any) error {
	w.stateMu.Lock()
	if w.state == StateCrashed {
		w.stateMu.Unlock()
		return nil
	}
	u, err := w.resolveLocked(rawURL)
	if err != nil {
		w.stateMu.Unlock()
		return fmt.Errorf("run view: %w", err)
	}
	w.stopViewTimerLocked()
	w.state = StateViewRequested
	w.runtimeID = ""
	w.url = u.String()
	gen := w.viewGen
	if w.cfg.UpdateTitle && w.cfg.Title != "" {
		w.title = w.cfg.Title
	}
	w.stateMu.Unlock()

	w.logger.Info("running view", "url", u.String(), "post", post != nil)
	w.submit("clear view", w.engine.Reset)

	if w.cfg.ScrollToTopOnViewStart && w.hooks.OnScrollTop != nil {
		w.hooks.OnScrollTop(w)
	}
	if w.cfg.UpdateTitle && w.cfg.Title != "" && w.hooks.OnTitle != nil {
		w.hooks.OnTitle(w, w.cfg.Title)
	}

	var postData any
	if post != nil {
		postData = post
	}
	if err := w.send(protocol.MethodView, []any{requestPath(u), postData}); err != nil {
		return err
	}

	if w.cfg.ViewStartTimeout > 0 {
		timer := time.AfterFunc(w.cfg.ViewStartTimeout, func() { w.viewStartTimedOut(gen) })
		w.stateMu.Lock()
		if w.viewGen == gen {
			w.viewTimer = timer
		} else {
			timer.Stop()
		}
		w.stateMu.Unlock()
	}
	return nil
}

// requestPath is the part of u the server routes on.
func requestPath(u *url.URL) string {
	p := u.RequestURI()
	if u.Fragment != "" {
		p += "#" + u.Fragment
	}
	return p
}

// stopViewTimerLocked cancels the view start timer. Bumping the generation
// also disarms a timer whose callback is already running.
func (w *Window) stopViewTimerLocked() {
	w.viewGen++
	if w.viewTimer != nil {
		w.viewTimer.Stop()
		w.viewTimer = nil
	}
}

func (w *Window) viewStartTimedOut(gen uint64) {
	w.stateMu.Lock()
	fire := gen == w.viewGen && w.state == StateViewRequested
	addr := w.url
	w.stateMu.Unlock()
	if !fire {
		return
	}

	w.logger.Warn("view start timed out", "url", addr)
	if w.hooks.OnViewTimeout != nil {
		w.hooks.OnViewTimeout(w)
	}
}

func (w *Window) inputEventTimedOut(eventID int) {
	w.logger.Warn("input event not acknowledged", "event_id", eventID)
	if w.hooks.OnInputEventTimeout != nil {
		w.hooks.OnInputEventTimeout(w, eventID)
	}
}
