package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/events"
	"github.com/five82/loom/internal/prefs"
	"github.com/five82/loom/internal/session"
	"github.com/five82/loom/internal/state"
	"github.com/five82/loom/internal/textdoc"
)

// actionTimeout bounds how long a user action waits for the window's queue.
const actionTimeout = 5 * time.Second

var (
	errNoHistory = errors.New("no earlier address")
	errNoView    = errors.New("no view to reload")
)

// browser binds the default window to the state store and carries the UI's
// requests back to the window. It keeps the address history for Back.
type browser struct {
	ctx       context.Context
	store     *state.Store
	logger    *slog.Logger
	prefsPath string
	window    *session.Window
	// out receives every rendered page when no terminal is attached.
	out io.Writer

	mu      sync.Mutex
	prefs   prefs.Prefs
	history []string
}

func newBrowser(ctx context.Context, store *state.Store, logger *slog.Logger, prefsPath string, p prefs.Prefs) *browser {
	return &browser{
		ctx:       ctx,
		store:     store,
		logger:    logger,
		prefsPath: prefsPath,
		prefs:     p,
	}
}

func (b *browser) hooks() session.Hooks {
	return session.Hooks{
		OnTitle: func(w *session.Window, title string) {
			b.store.SetView(w.URL(), title, w.State().String())
		},
		OnAddress: func(w *session.Window, url string) {
			b.visit(url)
			b.store.SetView(url, w.Title(), w.State().String())
		},
		OnNavigate: func(_ *session.Window, url string) {
			b.logger.Info("http redirect not followed in the terminal", "url", url)
			b.store.SetNotice("server redirected to " + url)
		},
		OnViewTimeout: func(w *session.Window) {
			b.store.SetNotice("view did not start in time: " + w.URL())
		},
		OnInputEventTimeout: func(_ *session.Window, eventID int) {
			b.store.SetNotice(fmt.Sprintf("input event %d was not acknowledged", eventID))
		},
		OnRendered: func(w *session.Window, doc *dom.Document) {
			page := textdoc.Flatten(doc)
			b.store.SetPage(page)
			b.store.SetView(w.URL(), w.Title(), w.State().String())
			b.print(w, page)
		},
		OnCrash: func(w *session.Window, err error) {
			b.store.SetError(err, true)
			b.store.SetView(w.URL(), w.Title(), w.State().String())
		},
	}
}

// sync copies the window's protocol state into the store.
func (b *browser) sync() {
	if b.window == nil {
		return
	}
	b.store.SetView(b.window.URL(), b.window.Title(), b.window.State().String())
}

func (b *browser) print(w *session.Window, page textdoc.Page) {
	if b.out == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	header := fmt.Sprintf("== %s (%s) ==", w.Title(), w.URL())
	fmt.Fprintf(b.out, "%s\n%s\n\n", header, page.Text())
}

// visit records url as the current address. Revisiting the current address
// is not a new history entry.
func (b *browser) visit(url string) {
	if url == "" {
		return
	}
	b.mu.Lock()
	if n := len(b.history); n == 0 || b.history[n-1] != url {
		b.history = append(b.history, url)
	}
	b.prefs.Remember(url)
	p := b.prefs
	b.mu.Unlock()

	if b.out == nil {
		// The UI saves the theme into the same file.
		onDisk, _ := prefs.Load(b.prefsPath)
		onDisk.LastURL, onDisk.History = p.LastURL, p.History
		if err := prefs.Save(b.prefsPath, onDisk); err != nil {
			b.logger.Warn("save prefs failed", "error", err)
		}
	}
}

// Navigate opens rawURL in the default window.
func (b *browser) Navigate(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if err := b.window.RunView(rawURL, nil); err != nil {
		return err
	}
	b.visit(b.window.URL())
	b.sync()
	return nil
}

// Back reopens the previous address.
func (b *browser) Back() error {
	b.mu.Lock()
	if len(b.history) < 2 {
		b.mu.Unlock()
		return errNoHistory
	}
	b.history = b.history[:len(b.history)-1]
	prev := b.history[len(b.history)-1]
	b.mu.Unlock()

	if err := b.window.RunView(prev, nil); err != nil {
		return err
	}
	b.sync()
	return nil
}

// Reload reruns the current view.
func (b *browser) Reload() error {
	current := b.window.URL()
	if current == "" {
		return errNoView
	}
	if err := b.window.RunView(current, nil); err != nil {
		return err
	}
	b.sync()
	return nil
}

// Activate clicks the target.
func (b *browser) Activate(t textdoc.Target) error {
	return b.dispatch(events.Interaction{Kind: events.Click, Target: t.Node})
}

// SetValue types value into a text control and commits it.
func (b *browser) SetValue(t textdoc.Target, value string) error {
	if err := b.dispatch(events.Interaction{Kind: events.Input, Target: t.Node, Value: value}); err != nil {
		return err
	}
	return b.dispatch(events.Interaction{Kind: events.Change, Target: t.Node})
}

// Select chooses option index of a select.
func (b *browser) Select(t textdoc.Target, index int) error {
	return b.dispatch(events.Interaction{Kind: events.Select, Target: t.Node, Selected: []int{index}})
}

func (b *browser) dispatch(in events.Interaction) error {
	if in.Target == nil {
		return fmt.Errorf("%s: no target", in.Kind)
	}
	ctx, cancel := context.WithTimeout(b.ctx, actionTimeout)
	defer cancel()
	if err := b.window.Dispatch(ctx, in); err != nil {
		return fmt.Errorf("%s: %w", in.Kind, err)
	}
	return nil
}
