package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Navigation",
		items: []helpItem{
			{"1-5", "Findings/Tasks/Characters/Batches/Logs"},
			{"tab", "Cycle views"},
			{"[ ]", "Previous/next project"},
			{"j/k", "Move up/down"},
			{"g/G", "Go to top/bottom"},
			{"ctrl+d/u", "Page down/up"},
		},
	},
	{
		title: "Findings",
		items: []helpItem{
			{"enter", "Edit bounding box"},
			{"s", "Retry a failed save"},
			{"r", "Discard unsaved box"},
		},
	},
	{
		title: "Box editor",
		items: []helpItem{
			{"←↑↓→ hjkl", "Move box"},
			{"HJKL", "Resize box"},
			{"-/+", "Smaller/larger step"},
			{"enter", "Save and close"},
			{"esc", "Discard and close"},
			{"r", "Reset to saved box"},
		},
	},
	{
		title: "Logs",
		items: []helpItem{
			{"space", "Toggle follow mode"},
		},
	},
	{
		title: "General",
		items: []helpItem{
			{"T", "Cycle theme"},
			{"?", "Toggle help"},
			{"Q/ctrl+c", "Quit"},
		},
	},
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i, section := range helpSections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(helpSections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(56).
		Render(b.String())

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
