package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/framer/internal/studio"
)

func (m Model) renderCharacters() string {
	chars := m.snapshot.Characters
	if len(chars) == 0 {
		return m.renderEmpty(m.emptyMessage("No characters"))
	}
	height := m.contentHeight()
	listWidth := m.width * 40 / 100
	detailWidth := m.width - listWidth
	selected := clampIndex(m.selected[ViewCharacters], len(chars))
	counts := m.findingsPerCharacter()

	rows := make([]string, len(chars))
	for i, c := range chars {
		n := ""
		if counts[c.ID] > 0 {
			n = fmt.Sprintf("%d", counts[c.ID])
		}
		nameWidth := max(listWidth-8, 4)
		rows[i] = padRight(truncate(c.Name, nameWidth), nameWidth) + " " + m.theme.Styles().WarningText.Render(n)
	}
	list := m.renderRows(rows, selected, listWidth-2, height-2, m.theme.FocusBg)
	listPane := m.renderTitledBox(fmt.Sprintf("Characters (%d)", len(chars)), list, listWidth, height, true)

	detail := m.renderCharacterDetail(chars[selected], counts[chars[selected].ID], detailWidth-4)
	detailPane := m.renderTitledBox("Details", detail, detailWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func (m Model) findingsPerCharacter() map[string]int {
	counts := make(map[string]int)
	for _, f := range m.snapshot.Findings {
		if f.CharacterID != "" {
			counts[f.CharacterID]++
		}
	}
	return counts
}

func (m Model) renderCharacterDetail(c studio.Character, findings, width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)

	lines := []string{bg.Render(truncate(c.Name, width), styles.Text.Bold(true))}
	if len(c.Tags) > 0 {
		lines = append(lines, bg.Render(truncate(strings.Join(c.Tags, ", "), width), styles.InfoText))
	}
	lines = append(lines, bg.Render(fmt.Sprintf("%d findings", findings), styles.MutedText))
	if c.ImageURL != "" {
		lines = append(lines, bg.Render(truncateMiddle(c.ImageURL, width), styles.FaintText))
	}
	if c.Description != "" {
		lines = append(lines, "")
		for _, l := range wrapText(c.Description, max(width, 10)) {
			lines = append(lines, bg.Render(l, styles.Text))
		}
	}
	return strings.Join(lines, "\n")
}
