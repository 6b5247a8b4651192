package ui

import (
	"errors"
	"strings"
	"syscall"
)

// renderHeader renders the title bar: logo, window state, title and address.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	status := m.snapshot.WindowState
	if status == "" {
		status = "idle"
	}
	if m.snapshot.IsOffline() {
		status = "offline"
	}

	parts := []string{
		bg.Render("loom", styles.Logo),
		styles.StatusStyle(status).Render(strings.ToUpper(status)),
	}
	if title := m.snapshot.Title; title != "" {
		parts = append(parts, bg.Render(truncate(title, 40), styles.Text.Bold(true)))
	}
	if url := m.snapshot.URL; url != "" {
		parts = append(parts, bg.Render(truncate(url, max(m.width/2, 20)), styles.MutedText))
	}
	if m.busy > 0 {
		parts = append(parts, bg.Render("working...", styles.WarningText))
	}
	if !m.snapshot.LastUpdated.IsZero() && m.width >= 100 {
		parts = append(parts, bg.Render(m.snapshot.LastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.addressing || m.editing:
		commands = []cmd{
			{"enter", "Confirm"},
			{"esc", "Cancel"},
		}
	case m.currentView == ViewLogs:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"G", "Bottom"},
			{"l", "Page"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"tab", "Next"},
			{"enter", "Activate"},
			{"g", "Go"},
			{"b", "Back"},
			{"r", "Reload"},
			{"l", "Log"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderStatusLine shows the open prompt, the latest error or notice, or
// what the focused target is.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var content string
	switch {
	case m.addressing:
		content = bg.Render("Go to:", styles.AccentText) + bg.Spaces(1) + m.addressInput.View()
	case m.editing:
		content = bg.Render("Edit:", styles.AccentText) + bg.Spaces(1) + m.editInput.View()
	case m.actionErr != nil:
		content = bg.Render(truncate(m.actionErr.Error(), max(m.width-4, 10)), styles.DangerText)
	case m.snapshot.Crashed && m.snapshot.LastError != nil:
		content = bg.Render("CRASHED", styles.DangerText) + bg.Spaces(2) +
			bg.Render(truncate(firstLine(m.snapshot.LastError.Error()), max(m.width-14, 10)), styles.MutedText)
	case m.snapshot.LastError != nil:
		content = bg.Render(classifyConnectionError(m.snapshot.LastError), styles.DangerText) + bg.Spaces(2) +
			bg.Render(truncate(firstLine(m.snapshot.LastError.Error()), max(m.width-20, 10)), styles.MutedText)
	case m.snapshot.Notice != "":
		content = bg.Render(truncate(m.snapshot.Notice, max(m.width-4, 10)), styles.WarningText)
	default:
		if t, ok := m.focusedTarget(); ok {
			content = bg.Render(truncate(describeTarget(t), max(m.width-4, 10)), styles.MutedText)
		}
	}
	return styles.Header.Width(m.width).MaxHeight(1).Render(content)
}

// classifyConnectionError names the transport failure behind err.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "OFFLINE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	case strings.Contains(msg, "closed"):
		return "DISCONNECTED"
	default:
		return "ERROR"
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
