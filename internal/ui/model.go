// Package ui provides the Bubble Tea TUI for tracklist.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tracklist/internal/logtail"
	"github.com/five82/tracklist/internal/reconcile"
	"github.com/five82/tracklist/internal/state"
	"github.com/five82/tracklist/internal/view"
)

const (
	flashDuration = 3 * time.Second
	logRefresh    = 2 * time.Second
	volumeStep    = 5
)

// Controller is the set of core operations the UI drives.
type Controller interface {
	RequestReconcile() bool
	Results() <-chan reconcile.Outcome
	Apply(reconcile.Outcome) (stale bool)
	ToggleFavorite(name string) bool
	SetActiveGroup(name string)
	ToggleSort() int
	LoadPlaylist(path string) error
	Clear() bool
	Activate(t state.Track) bool
	TogglePause() bool
	Next() bool
	Prev() bool
	AdjustVolume(delta float64) (float64, bool)
	SaveSession(width, height int)
	SetTheme(name string)
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Store      *state.Store
	// Titles delivers now-playing titles from the heartbeat.
	Titles    <-chan string
	LogPath   string
	ThemeName string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	ctrl    Controller
	store   *state.Store
	titles  <-chan string
	logPath string
	keys    keyMap

	theme  Theme
	width  int
	height int
	ready  bool

	rows     []view.Row
	groups   []view.Group
	group    string
	sortMode int
	title    string
	paused   bool
	selected int
	offset   int
	jumped   bool

	search    textinput.Model
	searching bool
	prompt    textinput.Model
	prompting bool

	flash   string
	flashID int

	showHelp    bool
	showLogs    bool
	logEntries  []logtail.Entry
	logLevel    logtail.Level
	logViewport viewport.Model
}

// New creates the model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search tracks"
	search.CharLimit = 200

	prompt := textinput.New()
	prompt.Prompt = "open: "
	prompt.Placeholder = "/path/to/playlist.m3u"
	prompt.CharLimit = 4096

	m := Model{
		ctx:      ctx,
		ctrl:     opts.Controller,
		store:    opts.Store,
		titles:   opts.Titles,
		logPath:  opts.LogPath,
		keys:     defaultKeyMap(),
		theme:    GetTheme(opts.ThemeName),
		search:   search,
		prompt:   prompt,
		logLevel: logtail.LevelInfo,
	}
	if opts.Store != nil {
		m.group = state.NormalizeGroup(opts.Store.Session().ActiveGroup)
	}
	m.refreshRows()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitResult(m.ctrl.Results()),
		waitTitle(m.titles),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampScroll()
		if m.showLogs {
			m.updateLogViewport()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		stale := m.ctrl.Apply(reconcile.Outcome(msg))
		if stale {
			m.ctrl.RequestReconcile()
		}
		if msg.Err == nil {
			m.title = msg.Snapshot.Title
			m.paused = msg.Snapshot.Paused
		}
		m.refreshRows()
		if !m.jumped && msg.Err == nil {
			m.jumped = m.jumpToPlaying()
		}
		return m, waitResult(m.ctrl.Results())

	case titleMsg:
		m.title = string(msg)
		return m, tea.Batch(waitTitle(m.titles), tea.SetWindowTitle(windowTitle(m.title)))

	case opMsg:
		return m, m.setFlash(msg.text)

	case changedMsg:
		m.refreshRows()
		return m, m.setFlash(msg.text)

	case groupSavedMsg:
		// Saves run concurrently; make sure the last one written matches.
		if string(msg) != m.group {
			return m, m.saveGroup(m.group)
		}
		m.refreshRows()
		return m, nil

	case sessionSavedMsg:
		return m, tea.Quit

	case clearFlashMsg:
		if int(msg) == m.flashID {
			m.flash = ""
		}
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil

	case logTickMsg:
		if !m.showLogs {
			return m, nil
		}
		return m, tea.Batch(m.refreshLogs(), logTick())
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
	if m.showLogs {
		return m.renderLogs()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.prompting {
		return m.handlePromptKey(msg)
	}
	if m.showLogs {
		switch {
		case key.Matches(msg, m.keys.Logs), key.Matches(msg, m.keys.Escape):
			m.showLogs = false
		case msg.String() == "v":
			m.cycleLogLevel()
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		default:
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = true
		m.updateLogViewport()
		return m, tea.Batch(m.refreshLogs(), logTick())
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		return m, m.op(func() string {
			m.ctrl.SetTheme(name)
			return "theme: " + name
		})
	case key.Matches(msg, m.keys.Escape):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refreshRows()
		}

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
		m.clampScroll()
	case key.Matches(msg, m.keys.Bottom):
		m.selected = len(m.rows) - 1
		m.clampScroll()
	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.listHeight())
	case key.Matches(msg, m.keys.Playing):
		m.jumpToPlaying()

	case key.Matches(msg, m.keys.Activate):
		if row, ok := m.selectedRow(); ok {
			return m, m.op(func() string {
				if m.ctrl.Activate(row.Track) {
					return "playing " + row.Track.Name
				}
				return "could not start " + row.Track.Name
			})
		}
	case key.Matches(msg, m.keys.Favorite):
		if row, ok := m.selectedRow(); ok {
			name := row.Track.Name
			return m, m.change(func() string {
				if m.ctrl.ToggleFavorite(name) {
					return "★ " + name
				}
				return "unstarred " + name
			})
		}
	case key.Matches(msg, m.keys.NextGroup):
		return m, m.switchGroup(1)
	case key.Matches(msg, m.keys.PrevGroup):
		return m, m.switchGroup(-1)
	case key.Matches(msg, m.keys.ToggleSort):
		return m, m.change(func() string {
			return "sort: " + sortLabel(m.ctrl.ToggleSort())
		})
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Open):
		m.prompting = true
		m.prompt.SetValue(m.store.LastPlaylist().Path)
		m.prompt.CursorEnd()
		return m, m.prompt.Focus()
	case key.Matches(msg, m.keys.Refresh):
		if !m.ctrl.RequestReconcile() {
			return m, m.setFlash("refresh already running")
		}
	case key.Matches(msg, m.keys.Clear):
		return m, m.op(func() string {
			if m.ctrl.Clear() {
				return "playlist cleared"
			}
			return "clear failed"
		})
	case key.Matches(msg, m.keys.CopyPath):
		if row, ok := m.selectedRow(); ok {
			if err := clipboardWriteAll(row.Track.Path); err != nil {
				return m, m.setFlash("copy failed: " + err.Error())
			}
			return m, m.setFlash("copied " + row.Track.Path)
		}

	case key.Matches(msg, m.keys.Pause):
		return m, m.op(func() string {
			if m.ctrl.TogglePause() {
				return ""
			}
			return "pause failed"
		})
	case key.Matches(msg, m.keys.Next):
		return m, m.op(func() string {
			if m.ctrl.Next() {
				return ""
			}
			return "no next track"
		})
	case key.Matches(msg, m.keys.Prev):
		return m, m.op(func() string {
			if m.ctrl.Prev() {
				return ""
			}
			return "no previous track"
		})
	case key.Matches(msg, m.keys.VolumeUp):
		return m, m.volume(volumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		return m, m.volume(-volumeStep)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.refreshRows()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "up", "down":
		if msg.String() == "up" {
			m.moveSelection(-1)
		} else {
			m.moveSelection(1)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refreshRows()
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case "enter":
		m.prompting = false
		m.prompt.Blur()
		path := m.prompt.Value()
		if path == "" {
			return m, nil
		}
		m.jumped = false
		return m, m.op(func() string {
			if err := m.ctrl.LoadPlaylist(path); err != nil {
				return err.Error()
			}
			return "loaded " + path
		})
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// quit saves the session off the update loop and quits once it is written.
func (m Model) quit() (tea.Model, tea.Cmd) {
	ctrl, width, height := m.ctrl, m.width, m.height
	return m, func() tea.Msg {
		ctrl.SaveSession(width, height)
		return sessionSavedMsg{}
	}
}

// switchGroup shows the next group at once and persists it in the background.
func (m *Model) switchGroup(step int) tea.Cmd {
	m.group = view.NextGroup(m.groups, m.group, step)
	m.selected, m.offset = 0, 0
	m.refreshRows()
	return m.saveGroup(m.group)
}

func (m Model) saveGroup(name string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.SetActiveGroup(name)
		return groupSavedMsg(name)
	}
}

func (m Model) volume(delta float64) tea.Cmd {
	return m.op(func() string {
		vol, ok := m.ctrl.AdjustVolume(delta)
		if !ok {
			return "volume unavailable"
		}
		return "volume " + formatVolume(vol)
	})
}

// refreshRows rebuilds the projection from the store, keeping the selected
// track selected when it is still visible.
func (m *Model) refreshRows() {
	if m.store == nil {
		return
	}
	var keepPath string
	if row, ok := m.selectedRow(); ok {
		keepPath = row.Track.Path
	}

	snap := m.store.Snapshot()
	favs := m.store.Favorites()
	m.group = state.NormalizeGroup(m.group)
	m.sortMode = m.store.Session().SortMode
	m.rows = view.Project(snap, favs, m.group, m.search.Value())
	m.groups = view.Groups(snap, favs, m.group)

	if keepPath != "" {
		for i, r := range m.rows {
			if r.Track.Path == keepPath {
				m.selected = i
				break
			}
		}
	}
	m.clampScroll()
}

func (m *Model) jumpToPlaying() bool {
	idx := view.PlayingIndex(m.rows)
	if idx < 0 {
		return false
	}
	m.selected = idx
	// Center the playing row.
	m.offset = idx - m.listHeight()/2
	m.clampScroll()
	return true
}

func (m *Model) moveSelection(delta int) {
	m.selected += delta
	m.clampScroll()
}

func (m *Model) clampScroll() {
	n := len(m.rows)
	if n == 0 {
		m.selected, m.offset = 0, 0
		return
	}
	m.selected = min(max(m.selected, 0), n-1)
	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	m.offset = min(max(m.offset, 0), max(n-h, 0))
}

func (m Model) selectedRow() (view.Row, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return view.Row{}, false
	}
	return m.rows[m.selected], true
}

func (m Model) listHeight() int {
	return max(m.height-3, 1)
}

func (m *Model) setFlash(text string) tea.Cmd {
	if text == "" {
		return nil
	}
	m.flash = text
	m.flashID++
	id := m.flashID
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return clearFlashMsg(id) })
}

// op runs a blocking controller call off the update loop.
func (m Model) op(fn func() string) tea.Cmd {
	return func() tea.Msg { return opMsg{text: fn()} }
}

// change is op for calls that alter the store; rows are rebuilt when it ends.
func (m Model) change(fn func() string) tea.Cmd {
	return func() tea.Msg { return changedMsg{text: fn()} }
}

// Messages

type resultMsg reconcile.Outcome

type titleMsg string

type opMsg struct{ text string }

type changedMsg struct{ text string }

type groupSavedMsg string

type sessionSavedMsg struct{}

type clearFlashMsg int

type logTickMsg time.Time

// Commands

func waitResult(ch <-chan reconcile.Outcome) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return resultMsg(r)
	}
}

func waitTitle(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return titleMsg(t)
	}
}

func logTick() tea.Cmd {
	return tea.Tick(logRefresh, func(t time.Time) tea.Msg { return logTickMsg(t) })
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is done.
func Run(opts Options) error {
	m := New(opts)
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
