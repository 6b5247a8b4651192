package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed reports a send on a closed connection.
var ErrClosed = errors.New("connection closed")

const writeTimeout = 10 * time.Second

// Conn is a client websocket connection.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	closed  bool
}

// Dial opens a websocket connection to rawURL.
func Dial(ctx context.Context, rawURL string, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	ws, resp, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", rawURL, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	logger.Info("connected", "url", rawURL)
	return &Conn{ws: ws, logger: logger}, nil
}

// Send writes message as one text frame.
func (c *Conn) Send(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Listen reads frames and calls fn for each text frame until ctx is done or
// the connection fails. A normal close by the peer returns nil.
func (c *Conn) Listen(ctx context.Context, fn func(raw string)) error {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("connection closed by server")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if kind != websocket.TextMessage {
			c.logger.Debug("ignoring non-text frame", "type", kind)
			continue
		}
		fn(string(data))
	}
}

// Close sends a close frame and closes the connection. It is safe to call
// more than once.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}
