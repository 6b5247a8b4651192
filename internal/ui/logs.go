package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/loom/internal/logtail"
)

// logTailLines bounds how much of the client log the logs view reads.
const logTailLines = 500

type logEntryView struct {
	level string
	text  string
}

type logsMsg struct {
	entries []logEntryView
	err     error
}

// refreshLogs reads the tail of the client log in the background.
func (m Model) refreshLogs() tea.Cmd {
	if m.config == nil {
		return nil
	}
	path := m.config.LogPath()
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.Tail(path, logTailLines)
		if err != nil {
			return logsMsg{err: err}
		}
		views := make([]logEntryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, logEntryView{level: e.Level, text: e.Format()})
		}
		return logsMsg{entries: views}
	}
}

func (m *Model) updateLogViewport() {
	follow := m.logViewport.AtBottom() || m.logViewport.TotalLineCount() == 0
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	lines := make([]string, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		lines = append(lines, styles.LevelStyle(e.level).Render(e.text))
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	if follow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogs() string {
	height := m.height - chromeRows
	title := "Client log"
	if m.config != nil {
		title += " " + truncate(m.config.LogPath(), max(m.width/2, 20))
	}
	content := m.logViewport.View()
	if m.logErr != nil {
		content = m.theme.Styles().DangerText.Render(m.logErr.Error())
	} else if len(m.logEntries) == 0 {
		content = m.theme.Styles().MutedText.Render("No log entries yet.")
	}
	return m.renderTitledBox(title, content, m.width, height, true)
}
