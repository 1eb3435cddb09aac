package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders segments that all share one background color. Lipgloss
// resets between styled segments otherwise leave unpainted gaps.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a background helper for bgColor.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with style, painting spaces with the background too.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Join joins parts with a styled separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}

// FillLine pads rendered content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	side := bg.Render("│", borderStyle)
	lineStyle := lipgloss.NewStyle().
		Width(innerWidth).
		MaxWidth(innerWidth).
		Background(lipgloss.Color(bgColor))

	lines := strings.Split(content, "\n")
	rows := max(height-2, 0)
	out := make([]string, 0, rows+2)
	out = append(out, top)
	for i := 0; i < rows; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		out = append(out, side+lineStyle.Render(line)+side)
	}
	out = append(out, bottom)
	return strings.Join(out, "\n")
}

// renderRows renders one line per row, highlighting the selected index and
// keeping it inside the visible window of height rows.
func (m Model) renderRows(rows []string, selected, width, height int, bgColor string) string {
	if len(rows) == 0 || height <= 0 {
		return ""
	}
	start := scrollStart(selected, len(rows), height)
	end := min(start+height, len(rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		style := lipgloss.NewStyle().Width(width).MaxWidth(width)
		if i == selected {
			style = style.
				Background(lipgloss.Color(m.theme.SelectionBg)).
				Foreground(lipgloss.Color(m.theme.SelectionText))
		} else {
			style = style.
				Background(lipgloss.Color(bgColor)).
				Foreground(lipgloss.Color(m.theme.Text))
		}
		lines = append(lines, style.Render(rows[i]))
	}
	return strings.Join(lines, "\n")
}

// scrollStart returns the first visible row so that selected stays on screen.
func scrollStart(selected, total, height int) int {
	if height <= 0 || total <= height || selected < height {
		return 0
	}
	start := selected - height + 1
	return min(start, total-height)
}

// renderEmpty centers a muted message in the content area.
func (m Model) renderEmpty(message string) string {
	styles := m.theme.Styles()
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center,
		styles.MutedText.Render(message))
}

// contentHeight is the space left below the header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 0)
}
