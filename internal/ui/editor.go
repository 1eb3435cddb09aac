package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/framer/internal/studio"
)

// defaultNewBox is offered for findings that have no bounding box yet.
var defaultNewBox = studio.BoundingBox{X: 0.4, Y: 0.4, Width: 0.2, Height: 0.2}

// startEditing enters edit mode for f, seeding the session from the server
// box the first time the finding is touched.
func (m *Model) startEditing(f studio.Finding) {
	if m.boxes == nil {
		return
	}
	if _, ok := m.boxes.CurrentValue(f.ID); !ok {
		seed := defaultNewBox
		if f.Box != nil {
			seed = *f.Box
		}
		m.boxes.Initialize(f.ID, seed)
	}
	m.boxes.StartEditing(f.ID)
	m.editing = f.ID
	m.logger.Debug("editing bounding box", zap.String("finding", f.ID))
}

// handleEditorKey processes keys while a bounding box is being edited.
func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.editing
	switch {
	case key.Matches(msg, m.keys.Finish):
		m.editing = ""
		if task := m.boxes.FinishEditing(id); task != nil {
			return m, waitSaveCmd(m.ctx, task)
		}
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.boxes.CancelEditing(id)
		m.editing = ""
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		m.boxes.ResetToOriginal(id)
		return m, nil
	case key.Matches(msg, m.keys.FineStep):
		m.nudgeStep = max(m.nudgeStep/2, minNudgeStep)
		return m, nil
	case key.Matches(msg, m.keys.CoarseStep):
		m.nudgeStep = min(m.nudgeStep*2, maxNudgeStep)
		return m, nil
	}

	current, ok := m.boxes.CurrentValue(id)
	if !ok {
		m.editing = ""
		return m, nil
	}
	next, changed := m.nudge(msg, current)
	if changed && next != current {
		m.boxes.Update(id, next)
	}
	return m, nil
}

// nudge maps a movement or resize key onto box. The result always stays
// inside the unit square.
func (m Model) nudge(msg tea.KeyMsg, box studio.BoundingBox) (studio.BoundingBox, bool) {
	step := m.nudgeStep
	// Resize bindings are checked first so shift+arrow never reads as a move.
	switch {
	case key.Matches(msg, m.keys.Narrower):
		return box.Resize(-step, 0), true
	case key.Matches(msg, m.keys.Wider):
		return box.Resize(step, 0), true
	case key.Matches(msg, m.keys.Taller):
		return box.Resize(0, step), true
	case key.Matches(msg, m.keys.Shorter):
		return box.Resize(0, -step), true
	case key.Matches(msg, m.keys.MoveLeft):
		return box.Translate(-step, 0), true
	case key.Matches(msg, m.keys.MoveRight):
		return box.Translate(step, 0), true
	case key.Matches(msg, m.keys.MoveUp):
		return box.Translate(0, -step), true
	case key.Matches(msg, m.keys.MoveDown):
		return box.Translate(0, step), true
	}
	return box, false
}
