package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/loom/internal/state"
	"github.com/five82/loom/internal/textdoc"
)

// applySnapshot adopts s and re-lays the page when a new render arrived.
func (m *Model) applySnapshot(s state.Snapshot) {
	m.snapshot = s
	if s.Renders == m.renders && s.URL == m.pageURL {
		return
	}
	m.renders = s.Renders
	targets := len(s.Page.Targets)
	switch {
	case s.URL != m.pageURL:
		m.pageURL = s.URL
		m.focus = -1
		m.pageViewport.GotoTop()
	case m.focus >= targets:
		m.focus = targets - 1
	}
	m.updatePageViewport()
}

func (m *Model) updatePageViewport() {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	m.pageViewport.SetContent(renderPageContent(m.snapshot.Page, m.focus, styles))
	m.revealFocus()
}

// revealFocus scrolls the page so the focused target is visible.
func (m *Model) revealFocus() {
	t, ok := m.focusedTarget()
	if !ok || m.pageViewport.Height <= 0 {
		return
	}
	top := m.pageViewport.YOffset
	switch {
	case t.Line < top:
		m.pageViewport.SetYOffset(t.Line)
	case t.Line >= top+m.pageViewport.Height:
		m.pageViewport.SetYOffset(t.Line - m.pageViewport.Height + 1)
	}
}

func (m Model) focusedTarget() (textdoc.Target, bool) {
	targets := m.snapshot.Page.Targets
	if m.focus < 0 || m.focus >= len(targets) {
		return textdoc.Target{}, false
	}
	return targets[m.focus], true
}

// moveFocus advances the focus by delta, wrapping at both ends.
func (m *Model) moveFocus(delta int) {
	n := len(m.snapshot.Page.Targets)
	if n == 0 {
		m.focus = -1
		return
	}
	switch {
	case m.focus < 0 && delta > 0:
		m.focus = 0
	case m.focus < 0:
		m.focus = n - 1
	default:
		m.focus = ((m.focus+delta)%n + n) % n
	}
	m.updatePageViewport()
}

func (m Model) handlePageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextTarget):
		m.moveFocus(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevTarget):
		m.moveFocus(-1)
		return m, nil
	case key.Matches(msg, m.keys.Activate):
		return m.activate(false)
	case key.Matches(msg, m.keys.Toggle):
		return m.activate(true)
	case key.Matches(msg, m.keys.NextOption):
		return m.stepOption(1)
	case key.Matches(msg, m.keys.PrevOption):
		return m.stepOption(-1)
	case key.Matches(msg, m.keys.Top):
		m.pageViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.pageViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.pageViewport, cmd = m.pageViewport.Update(msg)
	return m, cmd
}

// activate acts on the focused target. Text controls open the editor; a
// toggle key on a text control does nothing so space can be typed later.
func (m Model) activate(toggle bool) (tea.Model, tea.Cmd) {
	t, ok := m.focusedTarget()
	if !ok {
		return m, nil
	}
	switch {
	case t.Kind.Editable():
		if toggle {
			return m, nil
		}
		m.editing = true
		m.editInput.SetValue(t.Value)
		m.editInput.CursorEnd()
		return m, m.editInput.Focus()
	case t.Kind == textdoc.Select:
		return m.stepOption(1)
	default:
		return m.runAction(func(a Actions) error { return a.Activate(t) })
	}
}

// stepOption moves the selection of a focused select by delta.
func (m Model) stepOption(delta int) (tea.Model, tea.Cmd) {
	t, ok := m.focusedTarget()
	if !ok || t.Kind != textdoc.Select || len(t.Options) == 0 {
		return m, nil
	}
	index := nextOption(t, delta)
	return m.runAction(func(a Actions) error { return a.Select(t, index) })
}

func nextOption(t textdoc.Target, delta int) int {
	n := len(t.Options)
	current := -1
	if len(t.Selected) > 0 {
		current = t.Selected[0]
	}
	if current < 0 {
		if delta > 0 {
			return 0
		}
		return n - 1
	}
	return ((current+delta)%n + n) % n
}

// renderPageContent draws the page lines with targets highlighted and the
// focused one selected.
func renderPageContent(page textdoc.Page, focus int, styles Styles) string {
	byLine := make(map[int][]int)
	for i, t := range page.Targets {
		byLine[t.Line] = append(byLine[t.Line], i)
	}

	out := make([]string, len(page.Lines))
	for li, line := range page.Lines {
		var b strings.Builder
		pos := 0
		for _, ti := range byLine[li] {
			t := page.Targets[ti]
			if t.Start < pos || t.End > len(line) || t.Start > t.End {
				continue
			}
			b.WriteString(styles.Text.Render(line[pos:t.Start]))
			style := styles.AccentText
			if ti == focus {
				style = styles.Selected
			}
			b.WriteString(style.Render(line[t.Start:t.End]))
			pos = t.End
		}
		b.WriteString(styles.Text.Render(line[pos:]))
		out[li] = b.String()
	}
	return strings.Join(out, "\n")
}

func (m Model) renderPage() string {
	height := m.height - chromeRows
	title := m.snapshot.Title
	if title == "" {
		title = "Page"
	}
	if !m.snapshot.HasPage {
		styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
		msg := "Waiting for the first view..."
		if m.snapshot.WindowState == "" || m.snapshot.WindowState == "idle" {
			msg = "No view. Press g to open an address."
		}
		return m.renderTitledBox(title, styles.MutedText.Render(msg), m.width, height, true)
	}
	return m.renderTitledBox(title, m.pageViewport.View(), m.width, height, !m.editing && !m.addressing)
}

// describeTarget is the status line text for a focused target.
func describeTarget(t textdoc.Target) string {
	switch t.Kind {
	case textdoc.TextInput, textdoc.TextArea:
		return fmt.Sprintf("%s %q (enter to edit)", t.Kind, t.Value)
	case textdoc.Checkbox, textdoc.Radio:
		state := "off"
		if t.Checked {
			state = "on"
		}
		return fmt.Sprintf("%s %s (space to toggle)", t.Kind, state)
	case textdoc.Select:
		return fmt.Sprintf("select %d options (left/right to choose)", len(t.Options))
	default:
		return fmt.Sprintf("%s %q", t.Kind, t.Label)
	}
}
