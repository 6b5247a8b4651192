package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/events"
	"github.com/five82/loom/internal/jobqueue"
	"github.com/five82/loom/internal/protocol"
	"github.com/five82/loom/internal/render"
	"github.com/five82/loom/internal/widget"
	"golang.org/x/net/html"
)

// State is the protocol state of a window.
type State int

const (
	StateIdle State = iota
	StateViewRequested
	StateViewRunning
	StateViewStopped
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateViewRequested:
		return "view requested"
	case StateViewRunning:
		return "view running"
	case StateViewStopped:
		return "view stopped"
	case StateCrashed:
		return "crashed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds the settings a window consumes.
type Config struct {
	// BaseURL resolves the first relative view URL.
	BaseURL string
	// Title is shown while a view is being requested.
	Title string

	UpdateAddressBar       bool
	UpdateTitle            bool
	FollowRedirects        bool
	FollowHTTPRedirects    bool
	ScrollToTopOnViewStart bool

	// Zero disables the corresponding timeout.
	ViewStartTimeout  time.Duration
	InputEventTimeout time.Duration

	Registry widget.Registry
	Logger   *slog.Logger
}

// Hooks lets the embedding surface follow a window. Every hook is optional.
// Hooks run without the window's state lock held; OnTitle and OnRendered run
// inside a render job, so OnRendered may read doc but must not wait on the
// window.
type Hooks struct {
	OnTitle             func(w *Window, title string)
	OnAddress           func(w *Window, url string)
	OnScrollTop         func(w *Window)
	OnNavigate          func(w *Window, url string)
	OnViewTimeout       func(w *Window)
	OnInputEventTimeout func(w *Window, eventID int)
	OnRendered          func(w *Window, doc *dom.Document)
	OnCrash             func(w *Window, err error)
}

// Window is one display region bound to one view at a time.
type Window struct {
	id     int
	cfg    Config
	hooks  Hooks
	sender protocol.Sender
	logger *slog.Logger

	// Tree state. Only touched from jobs on queue.
	queue   jobqueue.Queue
	doc     *dom.Document
	widgets *widget.Manager
	capture *events.Capture
	engine  *render.Engine
	tracker *events.Tracker

	stateMu   sync.Mutex
	state     State
	runtimeID string
	url       string
	title     string
	viewGen   uint64
	viewTimer *time.Timer
	reported  bool
	crashErr  error
}

// New returns an idle window rendering into root.
func New(id int, root *html.Node, sender protocol.Sender, cfg Config, hooks Hooks) *Window {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("window", id)

	w := &Window{
		id:     id,
		cfg:    cfg,
		hooks:  hooks,
		sender: sender,
		logger: logger,
		doc:    dom.NewDocument(root),
	}
	w.widgets = widget.NewManager(cfg.Registry, w, logger)
	w.capture = events.NewCapture(w.doc, w, logger)
	w.engine = render.NewEngine(w.doc, w.widgets, w.capture, logger)
	w.tracker = events.NewTracker(cfg.InputEventTimeout, w.inputEventTimedOut)
	return w
}

// ID returns the window id.
func (w *Window) ID() int { return w.id }

// State returns the current protocol state.
func (w *Window) State() State {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.state
}

// RuntimeID returns the id of the view runtime the window accepts data from.
// It is empty between a view request and its start.
func (w *Window) RuntimeID() string {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.runtimeID
}

// URL returns the address of the current view.
func (w *Window) URL() string {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.url
}

// Title returns the last title shown by the window.
func (w *Window) Title() string {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.title
}

// Crashed reports whether the window has crashed.
func (w *Window) Crashed() bool {
	return w.State() == StateCrashed
}

// Err returns the error the window crashed with.
func (w *Window) Err() error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.crashErr
}

// PendingEvents returns the number of input events awaiting an ack.
func (w *Window) PendingEvents() int { return w.tracker.Pending() }

// Dispatch performs a user interaction inside the window's job queue and
// waits for it. Interactions aimed at nodes that have left the tree are
// dropped. Handler errors crash the window.
func (w *Window) Dispatch(ctx context.Context, in events.Interaction) error {
	errc := w.submit("interaction", func() error {
		err := w.capture.Dispatch(in)
		if errors.Is(err, events.ErrStaleTarget) {
			w.logger.Debug("dropping interaction with stale target", "kind", in.Kind)
			return nil
		}
		return err
	})
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inspect runs fn with exclusive access to the display tree. Errors from fn
// are returned to the caller and do not crash the window.
func (w *Window) Inspect(ctx context.Context, fn func(doc *dom.Document) error) error {
	return w.queue.Do(ctx, func() error { return fn(w.doc) })
}

// Flush waits until every job submitted so far has finished.
func (w *Window) Flush(ctx context.Context) error {
	return w.queue.Idle(ctx)
}

// Close cancels the window's timers and destroys its components.
func (w *Window) Close() {
	w.stateMu.Lock()
	w.stopViewTimerLocked()
	w.stateMu.Unlock()
	w.tracker.Reset()

	w.queue.Submit(func() error {
		if err := w.engine.Reset(); err != nil {
			w.logger.Warn("closing window", "error", err)
		}
		return nil
	})
}

// resolveLocked turns ref into an absolute URL relative to the current view, or
// to the base URL before the first view.
func (w *Window) resolveLocked(ref string) (*url.URL, error) {
	base := w.url
	if base == "" {
		base = w.cfg.BaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", base, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", ref, err)
	}
	return baseURL.ResolveReference(refURL), nil
}
