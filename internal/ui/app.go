package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/framer/internal/config"
	"github.com/five82/framer/internal/editcache"
	"github.com/five82/framer/internal/prefs"
	"github.com/five82/framer/internal/state"
	"github.com/five82/framer/internal/studio"
)

// View represents the current active view.
type View int

const (
	ViewFindings View = iota
	ViewTasks
	ViewCharacters
	ViewBatches
	ViewLogs
)

var viewOrder = []View{ViewFindings, ViewTasks, ViewCharacters, ViewBatches, ViewLogs}

// String returns the view's tab title.
func (v View) String() string {
	switch v {
	case ViewFindings:
		return "Findings"
	case ViewTasks:
		return "Tasks"
	case ViewCharacters:
		return "Characters"
	case ViewBatches:
		return "Batches"
	case ViewLogs:
		return "Logs"
	default:
		return "Unknown"
	}
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Store   *state.Store
	Boxes   *editcache.Session[studio.BoundingBox]
	// EditEvents carries finding ids whose edit state changed.
	EditEvents <-chan string
	// Refresh, when set, is called after the operator switches project.
	Refresh   func(context.Context) error
	Config    *config.Config
	Logger    *zap.Logger
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     *state.Store
	boxes     *editcache.Session[studio.BoundingBox]
	events    <-chan string
	refresh   func(context.Context) error
	config    *config.Config
	logger    *zap.Logger
	prefsPath string
	prefs     prefs.Prefs
	pollTick  time.Duration
	now       func() time.Time

	keys        keyMap
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	// quitArmed is set after a quit attempt with unsaved boxes.
	quitArmed bool

	snapshot    state.Snapshot
	lastUpdated time.Time
	selected    map[View]int

	// Bounding-box editor
	editing   string // finding id, empty when not editing
	nudgeStep float64

	// flash is a transient message shown in the header, e.g. a failed save.
	flash      string
	flashUntil time.Time

	logViewport viewport.Model
	logState    logState
}

const (
	defaultNudgeStep = 0.01
	minNudgeStep     = 0.001
	maxNudgeStep     = 0.1
	flashDuration    = 5 * time.Second
)

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)
	if opts.ThemeName != "" {
		userPrefs.Theme = opts.ThemeName
	}
	nudge := defaultNudgeStep
	if opts.Config != nil && opts.Config.NudgeStep > 0 {
		nudge = opts.Config.NudgeStep
	}

	return Model{
		ctx:         ctx,
		store:       opts.Store,
		boxes:       opts.Boxes,
		events:      opts.EditEvents,
		refresh:     opts.Refresh,
		config:      opts.Config,
		logger:      logger,
		prefsPath:   prefsPath,
		prefs:       userPrefs,
		pollTick:    pollTick,
		now:         time.Now,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(userPrefs.Theme),
		currentView: ViewFindings,
		selected:    make(map[View]int),
		nudgeStep:   nudge,
		logState:    logState{follow: true},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.events != nil {
		cmds = append(cmds, waitEditEventCmd(m.events))
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
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.now()
		m.clampSelection()
		// The finding being edited may have disappeared from the project.
		if m.editing != "" {
			if _, ok := m.snapshot.Finding(m.editing); !ok {
				m.boxes.CancelEditing(m.editing)
				m.editing = ""
			}
		}
		return m, nil

	case editEventMsg:
		// Session state is read at render time; the event only wakes the loop.
		return m, waitEditEventCmd(m.events)

	case editEventsClosedMsg:
		return m, nil

	case saveResultMsg:
		m.handleSaveResult(msg)
		return m, nil

	case refreshDoneMsg:
		if msg.err != nil {
			m.setFlash("refresh failed: " + msg.err.Error())
		}
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
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
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFindings:
		return m.renderFindings()
	case ViewTasks:
		return m.renderTasks()
	case ViewCharacters:
		return m.renderCharacters()
	case ViewBatches:
		return m.renderBatches()
	case ViewLogs:
		return m.renderLogs()
	default:
		return ""
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// The box editor captures every key except ctrl+c.
	if m.editing != "" {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleEditorKey(msg)
	}

	if !key.Matches(msg, m.keys.Quit) {
		m.quitArmed = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(msg)
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.NextView):
		return m.switchView(m.offsetView(1))
	case key.Matches(msg, m.keys.PrevView):
		return m.switchView(m.offsetView(-1))
	case key.Matches(msg, m.keys.ViewFindings):
		return m.switchView(ViewFindings)
	case key.Matches(msg, m.keys.ViewTasks):
		return m.switchView(ViewTasks)
	case key.Matches(msg, m.keys.ViewCharacters):
		return m.switchView(ViewCharacters)
	case key.Matches(msg, m.keys.ViewBatches):
		return m.switchView(ViewBatches)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)
	case key.Matches(msg, m.keys.NextProject):
		return m.cycleProject(1)
	case key.Matches(msg, m.keys.PrevProject):
		return m.cycleProject(-1)
	}

	switch m.currentView {
	case ViewFindings:
		return m.handleFindingsKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		m.moveSelection(msg, m.rowCount(m.currentView))
		return m, nil
	}
}

// quit exits at once unless boxes are unsaved, in which case Q must be
// pressed twice. ctrl+c always exits.
func (m Model) quit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	unsaved := m.unsavedCount()
	if unsaved == 0 || m.quitArmed || msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	m.quitArmed = true
	m.setFlash(fmt.Sprintf("%d unsaved boxes; press Q again to quit", unsaved))
	return m, nil
}

func (m Model) offsetView(delta int) View {
	idx := 0
	for i, v := range viewOrder {
		if v == m.currentView {
			idx = i
			break
		}
	}
	n := len(viewOrder)
	return viewOrder[((idx+delta)%n+n)%n]
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	if v == ViewLogs {
		m.updateLogViewport()
		return m, m.refreshLogsCmd()
	}
	return m, nil
}

// cycleProject selects the next or previous project and asks for a refresh.
func (m Model) cycleProject(delta int) (tea.Model, tea.Cmd) {
	projects := m.snapshot.Projects
	if len(projects) < 2 || m.store == nil {
		return m, nil
	}
	idx := 0
	for i, p := range projects {
		if p.ID == m.snapshot.ProjectID {
			idx = i
			break
		}
	}
	n := len(projects)
	next := projects[((idx+delta)%n+n)%n]

	m.store.SelectProject(next.ID)
	m.snapshot.ProjectID = next.ID
	m.selected = make(map[View]int)
	m.prefs.LastProject = next.ID
	m.savePrefs()
	m.logger.Info("project selected", zap.String("project", next.ID))

	if m.refresh == nil {
		return m, nil
	}
	return m, refreshCmd(m.ctx, m.refresh)
}

// moveSelection applies list navigation keys to the current view's cursor.
func (m *Model) moveSelection(msg tea.KeyMsg, count int) bool {
	if count == 0 {
		return false
	}
	row := m.selected[m.currentView]
	page := max(m.contentHeight()-3, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		row--
	case key.Matches(msg, m.keys.Down):
		row++
	case key.Matches(msg, m.keys.Top):
		row = 0
	case key.Matches(msg, m.keys.Bottom):
		row = count - 1
	case key.Matches(msg, m.keys.PageUp):
		row -= page
	case key.Matches(msg, m.keys.PageDown):
		row += page
	default:
		return false
	}
	m.selected[m.currentView] = clampIndex(row, count)
	return true
}

func (m Model) rowCount(v View) int {
	switch v {
	case ViewFindings:
		return len(m.snapshot.Findings)
	case ViewTasks:
		return len(m.snapshot.Tasks)
	case ViewCharacters:
		return len(m.snapshot.Characters)
	case ViewBatches:
		return len(m.snapshot.Batches)
	default:
		return 0
	}
}

func (m *Model) clampSelection() {
	for _, v := range viewOrder {
		if v == ViewLogs {
			continue
		}
		m.selected[v] = clampIndex(m.selected[v], m.rowCount(v))
	}
}

func clampIndex(i, count int) int {
	if count <= 0 || i < 0 {
		return 0
	}
	if i >= count {
		return count - 1
	}
	return i
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		cmds = append(cmds, m.refreshLogsCmd())
	}
	if m.flash != "" && m.now().After(m.flashUntil) {
		m.flash = ""
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleSaveResult(msg saveResultMsg) {
	switch {
	case msg.err == nil:
		return
	case errors.Is(msg.err, editcache.ErrSuperseded), errors.Is(msg.err, editcache.ErrClosed):
		return
	}
	m.setFlash("save failed for " + msg.id + ": " + msg.err.Error())
}

func (m *Model) setFlash(text string) {
	m.flash = text
	m.flashUntil = m.now().Add(flashDuration)
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save preferences failed", zap.Error(err))
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type editEventMsg string

type editEventsClosedMsg struct{}

type saveResultMsg struct {
	id  string
	err error
}

type refreshDoneMsg struct{ err error }

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

// waitEditEventCmd blocks until the session reports a change.
func waitEditEventCmd(events <-chan string) tea.Cmd {
	return func() tea.Msg {
		id, ok := <-events
		if !ok {
			return editEventsClosedMsg{}
		}
		return editEventMsg(id)
	}
}

// waitSaveCmd resolves once task finishes or ctx is cancelled.
func waitSaveCmd(ctx context.Context, task *editcache.SaveTask) tea.Cmd {
	return func() tea.Msg {
		return saveResultMsg{id: task.ID(), err: task.Wait(ctx)}
	}
}

func refreshCmd(ctx context.Context, refresh func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: refresh(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
