package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	NextView    key.Binding
	PrevView    key.Binding
	NextProject key.Binding
	PrevProject key.Binding

	// View switching
	ViewFindings   key.Binding
	ViewTasks      key.Binding
	ViewCharacters key.Binding
	ViewBatches    key.Binding
	ViewLogs       key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Findings
	Edit  key.Binding
	Retry key.Binding

	// Bounding-box editor
	Finish     key.Binding
	Cancel     key.Binding
	Reset      key.Binding
	MoveLeft   key.Binding
	MoveRight  key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Narrower   key.Binding
	Wider      key.Binding
	Taller     key.Binding
	Shorter    key.Binding
	FineStep   key.Binding
	CoarseStep key.Binding

	// Logs
	ToggleFollow key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "Q"),
			key.WithHelp("Q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		NextProject: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next project"),
		),
		PrevProject: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous project"),
		),

		ViewFindings: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Findings"),
		),
		ViewTasks: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Tasks"),
		),
		ViewCharacters: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Characters"),
		),
		ViewBatches: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Batches"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "Logs"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("ctrl+u", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("ctrl+d", "Page down"),
		),

		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "Edit box"),
		),
		Retry: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Retry save"),
		),

		Finish: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reset"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "Move left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "Move right"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Move down"),
		),
		Narrower: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "Narrower"),
		),
		Wider: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "Wider"),
		),
		Taller: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "Taller"),
		),
		Shorter: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "Shorter"),
		),
		FineStep: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Smaller step"),
		),
		CoarseStep: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Larger step"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" ", "f"),
			key.WithHelp("space", "Toggle follow"),
		),
	}
}
