package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/five82/loom/internal/protocol"
	"github.com/five82/loom/internal/session"
	"golang.org/x/net/html"
)

// ErrNoWindow reports an operation that needs a window when none exists.
var ErrNoWindow = errors.New("no window")

// Handler sees every inbound frame that is not a well formed protocol message
// for a known window. It reports whether it consumed the frame.
type Handler func(raw string) bool

// Client owns the windows that share one connection.
type Client struct {
	sender protocol.Sender
	cfg    session.Config
	hooks  session.Hooks
	logger *slog.Logger

	mu       sync.Mutex
	windows  map[int]*session.Window
	nextID   int
	handlers []Handler
	onPing   func()
	onPong   func()
}

// New returns a client that sends through sender. cfg and hooks are applied
// to every window the client creates.
func New(sender protocol.Sender, cfg session.Config, hooks session.Hooks) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Logger = logger
	return &Client{
		sender:  sender,
		cfg:     cfg,
		hooks:   hooks,
		logger:  logger,
		windows: make(map[int]*session.Window),
		nextID:  1,
	}
}

// CreateWindow adds a window rendering into root. A non-empty rawURL starts
// its first view.
func (c *Client) CreateWindow(root *html.Node, rawURL string) (*session.Window, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	w := session.New(id, root, c.sender, c.cfg, c.hooks)
	c.windows[id] = w
	c.mu.Unlock()

	c.logger.Debug("window created", "window", id)
	if rawURL == "" {
		return w, nil
	}
	if err := w.RunView(rawURL, nil); err != nil {
		return w, fmt.Errorf("create window: %w", err)
	}
	return w, nil
}

// RemoveWindow closes and forgets window id.
func (c *Client) RemoveWindow(id int) {
	c.mu.Lock()
	w, ok := c.windows[id]
	delete(c.windows, id)
	c.mu.Unlock()
	if ok {
		w.Close()
	}
}

// Window returns window id.
func (c *Client) Window(id int) (*session.Window, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.windows[id]
	return w, ok
}

// Windows returns every window ordered by id.
func (c *Client) Windows() []*session.Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, len(c.windows))
	for id := range c.windows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*session.Window, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.windows[id])
	}
	return out
}

// DefaultWindow returns the window with the lowest id, or nil.
func (c *Client) DefaultWindow() *session.Window {
	windows := c.Windows()
	if len(windows) == 0 {
		return nil
	}
	return windows[0]
}

// RunView runs a view on the default window.
func (c *Client) RunView(rawURL string, post map[string]any) error {
	w := c.DefaultWindow()
	if w == nil {
		return ErrNoWindow
	}
	return w.RunView(rawURL, post)
}

// AddHandler appends h to the chain that sees frames the windows do not
// consume.
func (c *Client) AddHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// OnPing sets a function called before every ping RunPings sends.
func (c *Client) OnPing(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPing = fn
}

// OnPong sets a function called for every pong the server sends.
func (c *Client) OnPong(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPong = fn
}

// HandleRaw routes one inbound frame. It must be called from the single
// goroutine that reads the connection. Protocol messages go to their window;
// everything else goes down the handler chain, and frames nobody consumes are
// logged and dropped. The returned error is a window crash.
func (c *Client) HandleRaw(raw string) error {
	msg, err := protocol.Decode(raw)
	if err != nil {
		if !errors.Is(err, protocol.ErrNotProtocol) {
			c.logger.Debug("malformed frame", "error", err)
		}
		c.offer(raw)
		return nil
	}

	if msg.Method == protocol.MethodPong {
		c.logger.Debug("pong")
		c.mu.Lock()
		fn := c.onPong
		c.mu.Unlock()
		if fn != nil {
			fn()
		}
		return nil
	}

	w, ok := c.Window(msg.WindowID)
	if !ok {
		c.logger.Debug("message for unknown window", "window", msg.WindowID, "method", msg.Method)
		c.offer(raw)
		return nil
	}
	if err := w.HandleMessage(msg); err != nil {
		return fmt.Errorf("window %d: %w", msg.WindowID, err)
	}
	return nil
}

func (c *Client) offer(raw string) {
	c.mu.Lock()
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		if h(raw) {
			return
		}
	}
	c.logger.Debug("unhandled frame", "frame", truncate(raw, 120))
}

// SendPing sends a keepalive ping.
func (c *Client) SendPing() error {
	message, err := protocol.Encode(0, "", protocol.MethodPing, nil)
	if err != nil {
		return err
	}
	if err := c.sender.Send(message); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}
	return nil
}

// RunPings sends a ping every interval until ctx is done. A non-positive
// interval disables pings and returns immediately. A failed ping is logged
// and the loop carries on; the reader notices a dead connection.
func (c *Client) RunPings(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.mu.Lock()
			fn := c.onPing
			c.mu.Unlock()
			if fn != nil {
				fn()
			}
			if err := c.SendPing(); err != nil {
				c.logger.Warn("ping failed", "error", err)
			}
		}
	}
}

// Close closes every window.
func (c *Client) Close() {
	for _, w := range c.Windows() {
		c.RemoveWindow(w.ID())
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
