// Package prefs persists user preferences: the colour theme and the
// addresses visited most recently. They are stored in
// ~/.config/loom/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/loom/internal/config"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme   string   `toml:"theme"`
	LastURL string   `toml:"last_url"`
	History []string `toml:"history"`
}

const (
	defaultPrefsPath = "~/.config/loom/prefs.toml"
	defaultTheme     = "Nightfox"

	// MaxHistory bounds the number of remembered addresses.
	MaxHistory = 20
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads the preferences at path (the default location when empty).
// Preferences are a convenience, so a missing or unreadable file yields the
// defaults and never an error.
func Load(path string) (Prefs, error) {
	p := Prefs{Theme: defaultTheme}
	resolved, err := resolvePath(path)
	if err != nil {
		return p, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p, nil
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}
	p.normalize()
	return p, nil
}

func (p *Prefs) normalize() {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	p.History = slices.DeleteFunc(p.History, func(s string) bool { return strings.TrimSpace(s) == "" })
	if len(p.History) > MaxHistory {
		p.History = p.History[:MaxHistory]
	}
	if len(p.History) == 0 {
		p.History = nil
	}
}

// Remember records a visited address as the last one and moves it to the
// front of the history.
func (p *Prefs) Remember(rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return
	}
	p.LastURL = rawURL
	p.History = slices.DeleteFunc(p.History, func(s string) bool { return s == rawURL })
	p.History = slices.Insert(p.History, 0, rawURL)
	if len(p.History) > MaxHistory {
		p.History = p.History[:MaxHistory]
	}
}

// Save writes p to path, creating parent directories. The file is replaced
// through a temporary sibling so a crash never leaves it half written.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		return errors.Join(fmt.Errorf("replace prefs: %w", err), os.Remove(tmp))
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return config.ExpandPath(path)
}
