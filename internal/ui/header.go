package ui

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/framer/internal/studio"
)

// renderHeader renders the status bar: logo, project, counts and freshness.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	if !m.snapshot.HasData {
		status := bg.Render("Connecting to studio...", styles.WarningText.Bold(true))
		if m.snapshot.LastError != nil {
			status = bg.Render("STUDIO "+classifyConnectionError(m.snapshot.LastError), styles.DangerText) +
				sep + bg.Render("Retrying...", styles.WarningText.Bold(true))
		}
		return styles.Header.Width(m.width).Render(bg.Render("framer", styles.Logo) + sep + status)
	}

	compact := m.width < LayoutCompactWidth
	parts := []string{bg.Render("framer", styles.Logo)}

	if project, ok := m.snapshot.Project(); ok {
		name := project.Name
		if name == "" {
			name = project.ID
		}
		label := truncate(name, ternaryInt(compact, 16, 32))
		if len(m.snapshot.Projects) > 1 {
			label += fmt.Sprintf(" (%d/%d)", m.projectIndex()+1, len(m.snapshot.Projects))
		}
		parts = append(parts, bg.Render(label, styles.AccentText.Bold(true)))
	}

	// Tabs, active view highlighted.
	tabs := make([]string, 0, len(viewOrder))
	for i, v := range viewOrder {
		label := fmt.Sprintf("%d %s", i+1, v)
		if compact {
			label = fmt.Sprintf("%d", i+1)
		}
		style := styles.MutedText
		if v == m.currentView {
			style = styles.Text.Bold(true).Underline(true)
		}
		tabs = append(tabs, bg.Render(label, style))
	}
	parts = append(parts, bg.Join(tabs, " "))

	open := 0
	for _, f := range m.snapshot.Findings {
		if !strings.EqualFold(f.Status, "resolved") && !strings.EqualFold(f.Status, "dismissed") {
			open++
		}
	}
	parts = append(parts, bg.Render("Open:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", open), styles.Text))

	unsaved := m.unsavedCount()
	unsavedStyle := styles.MutedText
	if unsaved > 0 {
		unsavedStyle = styles.WarningText.Bold(true)
	}
	parts = append(parts, bg.Render("Unsaved:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", unsaved), unsavedStyle))

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.snapshot.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText))
	} else if m.snapshot.LastError != nil {
		errText := truncate(m.snapshot.LastError.Error(), ternaryInt(compact, 30, 70))
		parts = append(parts, bg.Render("ERROR", styles.DangerText)+bg.Space()+bg.Render(errText, styles.DangerText))
	}

	if m.flash != "" {
		parts = append(parts, bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
			bg.Render(truncate(m.flash, 80), styles.WarningText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		MaxHeight(1).
		Render(bg.Join(parts, "  "))
}

func (m Model) projectIndex() int {
	for i, p := range m.snapshot.Projects {
		if p.ID == m.snapshot.ProjectID {
			return i
		}
	}
	return 0
}

// formatTimestamp renders "Updated 15:04:05 (3s ago)".
func (m Model) formatTimestamp() string {
	if m.snapshot.LastUpdated.IsZero() {
		return ""
	}
	age := m.now().Sub(m.snapshot.LastUpdated)
	return fmt.Sprintf("Updated %s (%s ago)", m.snapshot.LastUpdated.Format("15:04:05"), formatAge(age))
}

// classifyConnectionError turns transport errors into a short label.
func classifyConnectionError(err error) string {
	var apiErr *studio.APIError
	if errors.As(err, &apiErr) {
		if studio.IsUnauthorized(err) {
			return "UNAUTHORIZED"
		}
		return fmt.Sprintf("HTTP %d", apiErr.Status)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "TIMEOUT"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "DNS ERROR"
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "UNREACHABLE"
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.editing != "":
		commands = []cmd{
			{"←↑↓→", "Move"},
			{"HJKL", "Resize"},
			{"-/+", fmt.Sprintf("Step %.3f", m.nudgeStep)},
			{"enter", "Save"},
			{"esc", "Cancel"},
			{"r", "Reset"},
		}
	case m.currentView == ViewFindings:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Edit box"},
			{"s", "Retry save"},
			{"r", "Reset"},
			{"[/]", "Project"},
			{"tab", "View"},
			{"?", "Help"},
		}
	case m.currentView == ViewLogs:
		follow := "Pause"
		if !m.logState.follow {
			follow = "Follow"
		}
		commands = []cmd{
			{"space", follow},
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"tab", "View"},
			{"?", "Help"},
		}
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"[/]", "Project"},
			{"1-5", "Views"},
			{"T", "Theme"},
			{"?", "Help"},
			{"Q", "Quit"},
		}
	}

	parts := make([]string, 0, len(commands))
	for _, c := range commands {
		parts = append(parts, bg.Render(c.key, styles.WarningText.Bold(true))+bg.Space()+bg.Render(c.desc, styles.MutedText))
	}
	return styles.Header.Width(m.width).MaxHeight(1).Render(bg.Join(parts, "   "))
}

// formatAge renders a duration as a compact age: 12s, 4m, 3h, 2d.
func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
