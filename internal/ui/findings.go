package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/framer/internal/editcache"
	"github.com/five82/framer/internal/studio"
)

var severityRanks = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
	"low":      3,
	"info":     4,
}

func severityRank(severity string) int {
	if r, ok := severityRanks[normalizeStatus(severity)]; ok {
		return r
	}
	return len(severityRanks)
}

// sortedFindings orders findings by severity, then asset, then id.
func sortedFindings(findings []studio.Finding) []studio.Finding {
	out := make([]studio.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity)
		if ri != rj {
			return ri < rj
		}
		if out[i].AssetName != out[j].AssetName {
			return out[i].AssetName < out[j].AssetName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m Model) selectedFinding() (studio.Finding, bool) {
	findings := sortedFindings(m.snapshot.Findings)
	if len(findings) == 0 {
		return studio.Finding{}, false
	}
	return findings[clampIndex(m.selected[ViewFindings], len(findings))], true
}

// handleFindingsKey processes keys for the findings list.
func (m Model) handleFindingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveSelection(msg, len(m.snapshot.Findings)) {
		return m, nil
	}
	finding, ok := m.selectedFinding()
	if !ok || m.boxes == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Edit):
		m.startEditing(finding)
		return m, nil
	case key.Matches(msg, m.keys.Retry):
		// A failed save leaves the entry dirty; saving again retries it.
		if !m.boxes.IsDirty(finding.ID) {
			return m, nil
		}
		if task := m.boxes.FinishEditing(finding.ID); task != nil {
			return m, waitSaveCmd(m.ctx, task)
		}
	case key.Matches(msg, m.keys.Reset):
		m.boxes.ResetToOriginal(finding.ID)
	}
	return m, nil
}

// renderFindings renders the findings table beside the selected finding.
func (m Model) renderFindings() string {
	if len(m.snapshot.Findings) == 0 {
		return m.renderEmpty(m.emptyMessage("No findings"))
	}
	height := m.contentHeight()
	tableWidth := m.width * 45 / 100
	if m.width >= LayoutWideWidth {
		tableWidth = m.width * 35 / 100
	}
	detailWidth := m.width - tableWidth

	editing := m.editing != ""
	tableBg := ternary(editing, m.theme.SurfaceAlt, m.theme.FocusBg)
	findings := sortedFindings(m.snapshot.Findings)
	selected := clampIndex(m.selected[ViewFindings], len(findings))

	rows := make([]string, len(findings))
	for i, f := range findings {
		rows[i] = m.formatFindingRow(f, tableWidth-2)
	}
	table := m.renderRows(rows, selected, tableWidth-2, height-2, tableBg)
	title := fmt.Sprintf("Findings (%d)", len(findings))
	if dirty := m.unsavedCount(); dirty > 0 {
		title = fmt.Sprintf("Findings (%d, %d unsaved)", len(findings), dirty)
	}
	tablePane := m.renderTitledBox(title, table, tableWidth, height, !editing)

	finding := findings[selected]
	detailBg := ternary(editing, m.theme.FocusBg, m.theme.SurfaceAlt)
	detail := m.renderFindingDetail(finding, detailWidth-4, height-2, detailBg)
	detailTitle := "Details"
	if editing {
		detailTitle = "Editing " + truncate(finding.AssetName, 30)
	}
	detailPane := m.renderTitledBox(detailTitle, detail, detailWidth, height, editing)

	return lipgloss.JoinHorizontal(lipgloss.Top, tablePane, detailPane)
}

// formatFindingRow renders "● HIGH asset · category  saved".
func (m Model) formatFindingRow(f studio.Finding, width int) string {
	styles := m.theme.Styles()
	marker := " "
	if m.boxes != nil {
		switch {
		case m.boxes.IsEditing(f.ID):
			marker = styles.AccentText.Render("✎")
		case m.boxes.IsDirty(f.ID):
			marker = styles.WarningText.Render("●")
		}
	}

	severity := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.StatusColor(f.Severity))).
		Bold(true).
		Render(padRight(strings.ToUpper(truncate(f.Severity, 4)), 4))

	badge := ""
	if m.boxes != nil {
		badge = m.saveBadge(m.boxes.SaveStatus(f.ID))
	}
	badgeWidth := lipgloss.Width(badge)

	label := f.AssetName
	if label == "" {
		label = f.ID
	}
	if f.Category != "" {
		label += " · " + f.Category
	}
	labelWidth := max(width-badgeWidth-9, 4)
	label = padRight(truncate(label, labelWidth), labelWidth)

	return marker + " " + severity + " " + label + " " + badge
}

// saveBadge renders the transient save state of a finding's box.
func (m Model) saveBadge(st editcache.Status) string {
	label := saveBadgeLabel(st)
	if label == "" {
		return ""
	}
	return m.theme.Styles().StatusStyle(st.String()).Render(label)
}

func saveBadgeLabel(st editcache.Status) string {
	switch st {
	case editcache.StatusSaving:
		return "saving…"
	case editcache.StatusSaved:
		return "saved"
	case editcache.StatusError:
		return "error"
	default:
		return ""
	}
}

func (m Model) unsavedCount() int {
	if m.boxes == nil {
		return 0
	}
	return len(m.boxes.DirtyIDs())
}

// renderFindingDetail renders the metadata of f and a preview of its box.
func (m Model) renderFindingDetail(f studio.Finding, width, height int, bgColor string) string {
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	row := func(label, value string, style lipgloss.Style) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		return bg.Render(padRight(label, 11), styles.MutedText) + bg.Render(truncate(value, max(width-11, 8)), style)
	}

	var lines []string
	add := func(line string) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	add(row("Asset", f.AssetName, styles.Text.Bold(true)))
	add(row("Severity", f.Severity, lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(f.Severity)))))
	add(row("Category", f.Category, styles.Text))
	add(row("Status", f.Status, styles.Text))
	add(row("Character", m.characterName(f.CharacterID), styles.InfoText))
	add(row("Task", m.taskTitle(f.TaskID), styles.Text))
	if f.Confidence > 0 {
		add(row("Confidence", fmt.Sprintf("%.0f%%", f.Confidence*100), styles.Text))
	}
	if t := f.ParsedUpdatedAt(); !t.IsZero() {
		add(row("Updated", formatAge(m.now().Sub(t))+" ago", styles.MutedText))
	}
	if f.Message != "" {
		lines = append(lines, "")
		for _, l := range wrapText(f.Message, max(width, 10)) {
			lines = append(lines, bg.Render(l, styles.Text))
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.renderBoxSection(f, width, styles, bg)...)

	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderBoxSection(f studio.Finding, width int, styles Styles, bg BgStyle) []string {
	var lines []string
	var entry editcache.Entry[studio.BoundingBox]
	var known bool
	if m.boxes != nil {
		entry, known = m.boxes.Entry(f.ID)
	}
	if !known && f.Box == nil {
		lines = append(lines, bg.Render("No bounding box. Press enter to draw one.", styles.MutedText))
		return lines
	}
	if !known {
		entry = editcache.Entry[studio.BoundingBox]{Original: *f.Box, Current: *f.Box}
	}

	header := bg.Render("Bounding box", styles.AccentText.Bold(true))
	if m.boxes != nil {
		if badge := m.saveBadge(m.boxes.SaveStatus(f.ID)); badge != "" {
			header += bg.Space() + badge
		}
	}
	lines = append(lines, header)
	lines = append(lines, bg.Render(padRight("Current", 11), styles.MutedText)+bg.Render(entry.Current.String(), styles.Text))
	if entry.Dirty {
		lines = append(lines, bg.Render(padRight("Saved", 11), styles.MutedText)+bg.Render(entry.Original.String(), styles.FaintText))
	}
	if !entry.LastSaved.IsZero() {
		lines = append(lines, bg.Render(padRight("Last save", 11), styles.MutedText)+
			bg.Render(formatAge(m.now().Sub(entry.LastSaved))+" ago", styles.MutedText))
	}
	if m.editing == f.ID {
		lines = append(lines, bg.Render(fmt.Sprintf("step %.3f  arrows move  HJKL resize  enter save  esc cancel  r reset", m.nudgeStep), styles.WarningText))
	}

	previewWidth := min(max(width-2, 10), 48)
	previewHeight := max(previewWidth/3, 5)
	lines = append(lines, "")
	boxColor := ternary(entry.Dirty, m.theme.Warning, m.theme.Accent)
	for _, l := range boxPreview(entry.Current, previewWidth, previewHeight) {
		lines = append(lines, bg.Render(l, lipgloss.NewStyle().Foreground(lipgloss.Color(boxColor))))
	}
	return lines
}

// boxPreview draws box inside a width×height frame. Coordinates are
// normalized to the frame, so the preview is independent of image size.
func boxPreview(box studio.BoundingBox, width, height int) []string {
	if width < 3 || height < 3 {
		return nil
	}
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat("·", width))
	}

	x0 := scaleCoord(box.X, width)
	y0 := scaleCoord(box.Y, height)
	x1 := max(scaleCoord(box.X+box.Width, width), x0)
	y1 := max(scaleCoord(box.Y+box.Height, height), y0)

	for x := x0; x <= x1; x++ {
		grid[y0][x] = '─'
		grid[y1][x] = '─'
	}
	for y := y0; y <= y1; y++ {
		grid[y][x0] = '│'
		grid[y][x1] = '│'
	}
	if x0 != x1 && y0 != y1 {
		grid[y0][x0], grid[y0][x1] = '┌', '┐'
		grid[y1][x0], grid[y1][x1] = '└', '┘'
	}

	lines := make([]string, height)
	for y, row := range grid {
		lines[y] = string(row)
	}
	return lines
}

func scaleCoord(v float64, cells int) int {
	c := int(v*float64(cells-1) + 0.5)
	if c < 0 {
		return 0
	}
	if c > cells-1 {
		return cells - 1
	}
	return c
}

func (m Model) characterName(id string) string {
	if id == "" {
		return ""
	}
	for _, c := range m.snapshot.Characters {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

func (m Model) taskTitle(id string) string {
	if id == "" {
		return ""
	}
	for _, t := range m.snapshot.Tasks {
		if t.ID == id {
			return t.Title
		}
	}
	return id
}

// emptyMessage explains an empty list, preferring connection problems.
func (m Model) emptyMessage(fallback string) string {
	switch {
	case !m.snapshot.HasData && m.snapshot.LastError != nil:
		return "Studio unavailable: " + truncate(m.snapshot.LastError.Error(), 80)
	case !m.snapshot.HasData:
		return "Loading…"
	case m.snapshot.ProjectID == "":
		return "No projects"
	default:
		return fallback
	}
}
