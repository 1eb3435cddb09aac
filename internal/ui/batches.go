package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/framer/internal/studio"
)

const batchBarWidth = 24

// renderBatches renders every batch of the project with a progress bar.
func (m Model) renderBatches() string {
	batches := m.snapshot.Batches
	if len(batches) == 0 {
		return m.renderEmpty(m.emptyMessage("No batches"))
	}
	height := m.contentHeight()
	selected := clampIndex(m.selected[ViewBatches], len(batches))

	bar := progress.New(
		progress.WithSolidFill(m.theme.Accent),
		progress.WithWidth(batchBarWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = m.theme.Border

	rows := make([]string, len(batches))
	for i, b := range batches {
		rows[i] = m.formatBatchRow(b, bar, m.width-2)
	}
	list := m.renderRows(rows, selected, m.width-2, height-2, m.theme.FocusBg)
	return m.renderTitledBox(fmt.Sprintf("Batches (%d)", len(batches)), list, m.width, height, true)
}

// formatBatchRow renders "kind  [████    ]  42%  12/30  3 failed  4m".
func (m Model) formatBatchRow(b studio.Batch, bar progress.Model, width int) string {
	styles := m.theme.Styles()
	kind := padRight(truncate(titleCase(b.Kind), 16), 16)
	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.StatusColor(b.Status))).
		Render(padRight(truncate(titleCase(b.Status), 10), 10))

	parts := []string{
		kind,
		status,
		bar.ViewAs(b.Percent()),
		fmt.Sprintf("%3.0f%%", b.Percent()*100),
		styles.MutedText.Render(fmt.Sprintf("%d/%d", b.Processed, b.Total)),
	}
	if b.Failed > 0 {
		parts = append(parts, styles.DangerText.Render(fmt.Sprintf("%d failed", b.Failed)))
	}
	if d := b.Elapsed(m.now()); d > 0 {
		parts = append(parts, styles.MutedText.Render(formatAge(d)))
	}
	line := strings.Join(parts, "  ")
	if b.Error != "" {
		remaining := width - lipgloss.Width(line) - 2
		if remaining > 8 {
			line += "  " + styles.DangerText.Render(truncate(b.Error, remaining))
		}
	}
	return line
}
