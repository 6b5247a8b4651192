package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Window state badges are derived from the palette
// roles in newTheme.
type Theme struct {
	Name string

	Background string
	Surface    string // header and command bar
	SurfaceAlt string // unfocused boxes
	FocusBg    string // focused box and page body

	SelectionBg   string // focused target
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
	Alert   string // offline badge

	// StatusColors maps window states (and "offline") to badge colors.
	StatusColors map[string]string
}

func newTheme(t Theme) Theme {
	t.StatusColors = map[string]string{
		"idle":           t.Muted,
		"view requested": t.Warning,
		"view running":   t.Success,
		"view stopped":   t.Faint,
		"crashed":        t.Danger,
		"offline":        t.Alert,
	}
	return t
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	statusColors map[string]string
	background   string
	muted        string
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles builds the styles for t.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:     fg(t.Accent).Bold(true),
		Selected: fg(t.SelectionText).Background(lipgloss.Color(t.SelectionBg)).Underline(true),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// StatusStyle returns the badge style for a window state.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color, ok := s.statusColors[strings.ToLower(strings.TrimSpace(status))]
	if !ok || color == "" {
		color = s.muted
	}
	return fg(s.background).Background(lipgloss.Color(color)).Bold(true).Padding(0, 1)
}

// LevelStyle returns the style for a log level.
func (s Styles) LevelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "ERROR":
		return s.DangerText
	case "WARN":
		return s.WarningText
	case "DEBUG":
		return s.FaintText
	default:
		return s.InfoText
	}
}

// WithBackground returns a copy of s whose text styles paint bgColor.
// Selected keeps its own background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Carbonfox"}

var themes = map[string]Theme{
	// https://github.com/EdenEast/nightfox.nvim
	"Nightfox": newTheme(Theme{
		Name:       "Nightfox",
		Background: "#131a24", Surface: "#192330", SurfaceAlt: "#212e3f", FocusBg: "#29394f",
		SelectionBg: "#2b3b51", SelectionText: "#cdcecf",
		Border: "#39506d", BorderFocus: "#719cd6",
		Text: "#cdcecf", Muted: "#738091", Faint: "#71839b", Accent: "#719cd6",
		Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d", Info: "#63cdcf", Alert: "#f4a261",
	}),
	// https://github.com/rebelot/kanagawa.nvim
	"Kanagawa": newTheme(Theme{
		Name:       "Kanagawa",
		Background: "#16161D", Surface: "#1F1F28", SurfaceAlt: "#2A2A37", FocusBg: "#223249",
		SelectionBg: "#2D4F67", SelectionText: "#DCD7BA",
		Border: "#54546D", BorderFocus: "#7E9CD8",
		Text: "#DCD7BA", Muted: "#727169", Faint: "#625E5A", Accent: "#7E9CD8",
		Success: "#98BB6C", Warning: "#E6C384", Danger: "#E46876", Info: "#7FB4CA", Alert: "#FFA066",
	}),
	// Carbonfox variant of nightfox.nvim.
	"Carbonfox": newTheme(Theme{
		Name:       "Carbonfox",
		Background: "#0c0c0c", Surface: "#161616", SurfaceAlt: "#252525", FocusBg: "#1c1c1c",
		SelectionBg: "#2a2a2a", SelectionText: "#f2f4f8",
		Border: "#535353", BorderFocus: "#78a9ff",
		Text: "#f2f4f8", Muted: "#6e6f70", Faint: "#7b7c7e", Accent: "#78a9ff",
		Success: "#25be6a", Warning: "#08bdba", Danger: "#ee5396", Info: "#33b1ff", Alert: "#3ddbd9",
	}),
}

// GetTheme returns the named theme, or Nightfox for unknown names.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["Nightfox"]
}

// NextTheme is the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}
