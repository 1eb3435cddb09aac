package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/framer/internal/studio"
)

// renderTasks renders tasks on the left and the selected task's subtasks on the right.
func (m Model) renderTasks() string {
	tasks := m.snapshot.Tasks
	if len(tasks) == 0 {
		return m.renderEmpty(m.emptyMessage("No tasks"))
	}
	height := m.contentHeight()
	listWidth := m.width * 50 / 100
	detailWidth := m.width - listWidth
	selected := clampIndex(m.selected[ViewTasks], len(tasks))

	rows := make([]string, len(tasks))
	for i, t := range tasks {
		rows[i] = m.formatTaskRow(t, listWidth-2)
	}
	list := m.renderRows(rows, selected, listWidth-2, height-2, m.theme.FocusBg)
	listPane := m.renderTitledBox(fmt.Sprintf("Tasks (%d)", len(tasks)), list, listWidth, height, true)

	detail := m.renderTaskDetail(tasks[selected], detailWidth-4)
	detailPane := m.renderTitledBox("Subtasks", detail, detailWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// formatTaskRow renders "title  2/5  in progress".
func (m Model) formatTaskRow(t studio.Task, width int) string {
	styles := m.theme.Styles()
	done, total := t.Progress()
	progress := ""
	if total > 0 {
		progress = fmt.Sprintf("%d/%d", done, total)
	}
	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.StatusColor(t.Status))).
		Render(padRight(truncate(titleCase(t.Status), 12), 12))

	titleWidth := max(width-20, 6)
	return padRight(truncate(t.Title, titleWidth), titleWidth) + " " +
		styles.MutedText.Render(padRight(progress, 6)) + status
}

func (m Model) renderTaskDetail(t studio.Task, width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)

	lines := []string{bg.Render(truncate(t.Title, width), styles.Text.Bold(true))}
	meta := []string{}
	if t.Assignee != "" {
		meta = append(meta, "@"+t.Assignee)
	}
	if due := t.ParsedDueDate(); !due.IsZero() {
		label := "due " + due.Format("Jan 2")
		if due.Before(m.now()) && !strings.EqualFold(t.Status, "done") {
			label += " (overdue)"
		}
		meta = append(meta, label)
	}
	if len(meta) > 0 {
		lines = append(lines, bg.Render(strings.Join(meta, "  "), styles.MutedText))
	}
	if t.Description != "" {
		lines = append(lines, "")
		for _, l := range wrapText(t.Description, max(width, 10)) {
			lines = append(lines, bg.Render(l, styles.Text))
		}
	}
	lines = append(lines, "")

	if len(t.Subtasks) == 0 {
		lines = append(lines, bg.Render("No subtasks", styles.FaintText))
		return strings.Join(lines, "\n")
	}
	for _, s := range t.Subtasks {
		check, style := "[ ]", styles.Text
		if s.Done() {
			check, style = "[x]", styles.MutedText
		}
		lines = append(lines, bg.Render(check, styles.AccentText)+bg.Space()+bg.Render(truncate(s.Title, max(width-4, 4)), style))
	}
	return strings.Join(lines, "\n")
}
