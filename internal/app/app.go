package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/five82/loom/internal/client"
	"github.com/five82/loom/internal/config"
	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/prefs"
	"github.com/five82/loom/internal/session"
	"github.com/five82/loom/internal/state"
	"github.com/five82/loom/internal/transport"
	"github.com/five82/loom/internal/ui"
)

// Options configure the client application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/loom/prefs.toml
	// URL is the first view to open. Empty reopens the last visited address,
	// or the server root.
	URL string
	// Stdout receives rendered pages when no terminal is attached. Nil uses
	// os.Stdout.
	Stdout io.Writer
}

// Run connects to the server and drives the default window until the context
// is cancelled, the user quits or, without a terminal, the server closes the
// connection.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, closeLog, err := openLog(cfg.LogPath())
	if err != nil {
		return err
	}
	defer closeLog()

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	headless := opts.Stdout != nil || !isTerminal(os.Stdout)

	conn, err := transport.Dial(ctx, cfg.URL, logger)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.URL, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	b := newBrowser(ctx, store, logger, opts.PrefsPath, userPrefs)
	if headless {
		b.out = stdout
	}

	c := client.New(conn, sessionConfig(cfg, logger), b.hooks())
	c.OnPing(store.PingSent)
	c.OnPong(store.PongReceived)
	defer c.Close()

	w, err := c.CreateWindow(dom.NewRoot(cfg.Target), "")
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	b.window = w

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := conn.Listen(gctx, func(raw string) {
			if err := c.HandleRaw(raw); err != nil {
				logger.Error("window crashed", "error", err)
			}
			b.sync()
		})
		if gctx.Err() != nil {
			return nil
		}
		lost := err
		if lost == nil {
			lost = errors.New("connection closed by server")
		}
		store.SetError(lost, false)
		logger.Warn("connection lost", "error", lost)
		if !headless {
			// Keep the last page on screen; the user quits.
			return nil
		}
		cancel()
		return err
	})
	g.Go(func() error {
		return c.RunPings(gctx, cfg.PingInterval)
	})

	if err := b.Navigate(startURL(opts.URL, userPrefs)); err != nil {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("open first view: %w", err)
	}

	if !headless {
		g.Go(func() error {
			defer cancel()
			err := ui.Run(ui.Options{
				Context:   gctx,
				Store:     store,
				Actions:   b,
				Config:    &cfg,
				ThemeName: userPrefs.Theme,
				PrefsPath: opts.PrefsPath,
			})
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func sessionConfig(cfg config.Config, logger *slog.Logger) session.Config {
	return session.Config{
		BaseURL:                cfg.BaseURL(),
		Title:                  cfg.Title,
		UpdateAddressBar:       cfg.UpdateAddressBar,
		UpdateTitle:            cfg.UpdateTitle,
		FollowRedirects:        cfg.FollowRedirects,
		FollowHTTPRedirects:    cfg.FollowHTTPRedirects,
		ScrollToTopOnViewStart: cfg.ScrollToTopOnViewStart,
		ViewStartTimeout:       cfg.ViewStartTimeout,
		InputEventTimeout:      cfg.InputEventTimeout,
		Logger:                 logger,
	}
}

func startURL(flagURL string, p prefs.Prefs) string {
	switch {
	case flagURL != "":
		return flagURL
	case p.LastURL != "":
		return p.LastURL
	default:
		return "/"
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
