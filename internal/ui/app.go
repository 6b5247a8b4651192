package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/loom/internal/config"
	"github.com/five82/loom/internal/prefs"
	"github.com/five82/loom/internal/state"
	"github.com/five82/loom/internal/textdoc"
)

// View represents the current active view.
type View int

const (
	ViewPage View = iota
	ViewLogs
)

// Actions carries user requests to the default window. Calls may block until
// the window has processed them, so the model always runs them as commands.
type Actions interface {
	Navigate(rawURL string) error
	Back() error
	Reload() error
	// Activate clicks t.
	Activate(t textdoc.Target) error
	// SetValue replaces the value of a text control and commits it.
	SetValue(t textdoc.Target, value string) error
	// Select chooses option index of a select.
	Select(t textdoc.Target, index int) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Actions   Actions
	Config    *config.Config
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     *state.Store
	actions   Actions
	config    *config.Config
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	snapshot state.Snapshot
	renders  int
	pageURL  string
	// focus indexes snapshot.Page.Targets; -1 when nothing is focused.
	focus        int
	pageViewport viewport.Model

	editing      bool
	editInput    textinput.Model
	addressing   bool
	addressInput textinput.Model

	logViewport viewport.Model
	logEntries  []logEntryView
	logErr      error

	showHelp  bool
	busy      int
	actionErr error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = 250 * time.Millisecond
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	edit := textinput.New()
	edit.Prompt = ""
	edit.CharLimit = 4096

	address := textinput.New()
	address.Prompt = ""
	address.Placeholder = "/path or http://host/path"
	address.CharLimit = 2048

	return Model{
		ctx:          ctx,
		store:        opts.Store,
		actions:      opts.Actions,
		config:       opts.Config,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(opts.ThemeName),
		currentView:  ViewPage,
		focus:        -1,
		pageViewport: viewport.New(0, 0),
		logViewport:  viewport.New(0, 0),
		editInput:    edit,
		addressInput: address,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		m.updatePageViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case logsMsg:
		m.logErr = msg.err
		if msg.err == nil {
			m.logEntries = msg.entries
		}
		m.updateLogViewport()
		return m, nil

	case actionDoneMsg:
		m.busy = max(m.busy-1, 0)
		m.actionErr = msg.err
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderPage())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	return b.String()
}

func (m *Model) layout() {
	width := max(m.width-2, 1)
	height := max(m.height-chromeRows-2, 1)
	m.pageViewport.Width, m.pageViewport.Height = width, height
	m.logViewport.Width, m.logViewport.Height = width, height
	m.editInput.Width = max(m.width-10, 10)
	m.addressInput.Width = max(m.width-10, 10)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.addressing {
		return m.handleAddressKey(msg)
	}
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.saveTheme()
		m.updatePageViewport()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.ToggleLogs):
		if m.currentView == ViewLogs {
			m.currentView = ViewPage
			return m, nil
		}
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewPage
		m.actionErr = nil
		return m, nil

	case key.Matches(msg, m.keys.Address):
		m.addressing = true
		m.addressInput.SetValue(m.snapshot.URL)
		m.addressInput.CursorEnd()
		return m, m.addressInput.Focus()

	case key.Matches(msg, m.keys.Back):
		return m.runAction(func(a Actions) error { return a.Back() })

	case key.Matches(msg, m.keys.Reload):
		return m.runAction(func(a Actions) error { return a.Reload() })
	}

	switch m.currentView {
	case ViewLogs:
		switch {
		case key.Matches(msg, m.keys.Top):
			m.logViewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.logViewport.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	default:
		return m.handlePageKey(msg)
	}
}

func (m Model) handleAddressKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.addressing = false
		m.addressInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.addressing = false
		m.addressInput.Blur()
		target := strings.TrimSpace(m.addressInput.Value())
		if target == "" {
			return m, nil
		}
		m.currentView = ViewPage
		return m.runAction(func(a Actions) error { return a.Navigate(target) })
	}
	var cmd tea.Cmd
	m.addressInput, cmd = m.addressInput.Update(msg)
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.editInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.editing = false
		m.editInput.Blur()
		t, ok := m.focusedTarget()
		if !ok {
			return m, nil
		}
		value := m.editInput.Value()
		return m.runAction(func(a Actions) error { return a.SetValue(t, value) })
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

// runAction runs fn against the actions in a command so a slow window never
// stalls rendering.
func (m Model) runAction(fn func(a Actions) error) (tea.Model, tea.Cmd) {
	if m.actions == nil {
		return m, nil
	}
	m.busy++
	m.actionErr = nil
	actions := m.actions
	return m, func() tea.Msg {
		return actionDoneMsg{err: fn(actions)}
	}
}

func (m *Model) saveTheme() {
	if m.prefsPath == "" {
		return
	}
	p, _ := prefs.Load(m.prefsPath)
	p.Theme = m.theme.Name
	_ = prefs.Save(m.prefsPath, p)
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type actionDoneMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// done.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
