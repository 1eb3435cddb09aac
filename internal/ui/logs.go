package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/framer/internal/logtail"
)

// logState holds the logs view state.
type logState struct {
	lines       []logtail.Line
	follow      bool
	err         error
	lastRefresh time.Time
}

type logLinesMsg struct {
	lines []string
	err   error
}

// refreshLogsCmd reads the tail of framer's own log file off the UI goroutine.
func (m Model) refreshLogsCmd() tea.Cmd {
	if m.config == nil {
		return nil
	}
	path := m.config.LogPath()
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	m.logState.lastRefresh = m.now()
	if msg.err != nil {
		return
	}
	parsed := make([]logtail.Line, len(msg.lines))
	for i, raw := range msg.lines {
		parsed[i] = logtail.Parse(raw)
	}
	m.logState.lines = parsed
	m.updateLogViewport()
}

// updateLogViewport sizes the viewport and re-renders its content.
func (m *Model) updateLogViewport() {
	width, height := max(m.width-4, 0), max(m.contentHeight()-2, 0)
	if m.logViewport.Width == 0 && m.logViewport.Height == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent(width))
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ToggleFollow) {
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			return m, m.refreshLogsCmd()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logState.follow = false
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	// Scrolling away from the bottom pauses follow mode.
	if !m.logViewport.AtBottom() {
		m.logState.follow = false
	}
	return m, cmd
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	title := "Logs"
	if m.config != nil {
		title = "Logs · " + truncateMiddle(m.config.LogPath(), 60)
	}
	if !m.logState.follow {
		title += " (paused)"
	}
	return m.renderTitledBox(title, m.logViewport.View(), m.width, m.contentHeight(), true)
}

func (m Model) renderLogContent(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	if m.logState.err != nil {
		return bg.Render("Unable to read log: "+m.logState.err.Error(), styles.DangerText)
	}
	if len(m.logState.lines) == 0 {
		return bg.Render("No log entries yet", styles.MutedText)
	}

	out := make([]string, 0, len(m.logState.lines))
	for _, line := range m.logState.lines {
		out = append(out, m.formatLogLine(line, width, styles, bg))
	}
	return strings.Join(out, "\n")
}

// formatLogLine renders "15:04:05 WARN message key=value".
func (m Model) formatLogLine(line logtail.Line, width int, styles Styles, bg BgStyle) string {
	if line.Level == "raw" {
		return bg.Render(truncate(line.Raw, width), styles.FaintText)
	}

	var b strings.Builder
	if ts := logTimestamp(line.Time); ts != "" {
		b.WriteString(bg.Render(ts, styles.MutedText))
		b.WriteString(bg.Space())
	}
	b.WriteString(bg.Render(padRight(strings.ToUpper(line.Level), 5), m.levelStyle(line.Level, styles)))
	b.WriteString(bg.Space())
	b.WriteString(bg.Render(line.Message, styles.Text))
	for _, f := range line.Fields {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(f.Key+"=", styles.FaintText))
		b.WriteString(bg.Render(truncate(f.Value, 60), styles.InfoText))
	}
	return b.String()
}

func (m Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "error", "dpanic", "panic", "fatal":
		return styles.DangerText
	case "warn":
		return styles.WarningText
	case "debug":
		return styles.FaintText
	default:
		return styles.InfoText
	}
}

// logTimestamp shortens an ISO8601 zap timestamp to local wall-clock time.
func logTimestamp(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000Z0700", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Local().Format("15:04:05")
		}
	}
	return value
}
