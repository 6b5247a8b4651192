package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	// URL is the websocket endpoint of the server.
	URL string
	// Target names the root element the default window renders into.
	Target string
	// Title is shown while a view is being requested.
	Title string

	UpdateAddressBar       bool
	UpdateTitle            bool
	FollowRedirects        bool
	FollowHTTPRedirects    bool
	ScrollToTopOnViewStart bool

	// Zero disables the corresponding timer.
	PingInterval      time.Duration
	ViewStartTimeout  time.Duration
	InputEventTimeout time.Duration

	LogDir string
}

const (
	defaultConfigPath = "~/.config/loom/config.toml"
	defaultLogDir     = "~/.local/share/loom/logs"
	defaultURL        = "ws://127.0.0.1:8080/"
	defaultTarget     = "lona"
	defaultTitle      = "loom"

	defaultPingInterval      = 60 * time.Second
	defaultViewStartTimeout  = 2 * time.Second
	defaultInputEventTimeout = 2 * time.Second
)

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		URL:                    defaultURL,
		Target:                 defaultTarget,
		Title:                  defaultTitle,
		UpdateAddressBar:       true,
		UpdateTitle:            true,
		FollowRedirects:        true,
		FollowHTTPRedirects:    true,
		ScrollToTopOnViewStart: true,
		PingInterval:           defaultPingInterval,
		ViewStartTimeout:       defaultViewStartTimeout,
		InputEventTimeout:      defaultInputEventTimeout,
		LogDir:                 mustExpand(defaultLogDir),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		URL                    string `toml:"url"`
		Target                 string `toml:"target"`
		Title                  string `toml:"title"`
		UpdateAddressBar       *bool  `toml:"update_address_bar"`
		UpdateTitle            *bool  `toml:"update_title"`
		FollowRedirects        *bool  `toml:"follow_redirects"`
		FollowHTTPRedirects    *bool  `toml:"follow_http_redirects"`
		ScrollToTopOnViewStart *bool  `toml:"scroll_to_top_on_view_start"`
		PingInterval           *int   `toml:"ping_interval"`
		ViewStartTimeout       *int   `toml:"view_start_timeout"`
		InputEventTimeout      *int   `toml:"input_event_timeout"`
		LogDir                 string `toml:"log_dir"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Target); v != "" {
		cfg.Target = v
	}
	if v := strings.TrimSpace(raw.Title); v != "" {
		cfg.Title = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}

	setBool(&cfg.UpdateAddressBar, raw.UpdateAddressBar)
	setBool(&cfg.UpdateTitle, raw.UpdateTitle)
	setBool(&cfg.FollowRedirects, raw.FollowRedirects)
	setBool(&cfg.FollowHTTPRedirects, raw.FollowHTTPRedirects)
	setBool(&cfg.ScrollToTopOnViewStart, raw.ScrollToTopOnViewStart)

	for _, d := range []struct {
		name string
		dst  *time.Duration
		src  *int
	}{
		{"ping_interval", &cfg.PingInterval, raw.PingInterval},
		{"view_start_timeout", &cfg.ViewStartTimeout, raw.ViewStartTimeout},
		{"input_event_timeout", &cfg.InputEventTimeout, raw.InputEventTimeout},
	} {
		if d.src == nil {
			continue
		}
		if *d.src < 0 {
			return Config{}, fmt.Errorf("parse config: %s must not be negative", d.name)
		}
		*d.dst = time.Duration(*d.src) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the server URL is a websocket URL.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid url %q: scheme must be ws or wss", c.URL)
	}
	return nil
}

// BaseURL is the http address views resolve against: the websocket URL with
// its scheme swapped.
func (c Config) BaseURL() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return c.URL
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	return u.String()
}

// LogPath returns the path of the client log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/loom.log")
	}
	return filepath.Join(c.LogDir, "loom.log")
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ to the home directory and returns an
// absolute path.
func ExpandPath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", errors.New("path is empty")
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	return filepath.Abs(p)
}
