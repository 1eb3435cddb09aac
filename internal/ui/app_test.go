package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/framer/internal/prefs"
	"github.com/five82/framer/internal/state"
	"github.com/five82/framer/internal/studio"
)

func TestViewSwitching(t *testing.T) {
	m, _ := newTestModel(t, &stubSaver{})

	m = send(t, m, runeKey('3'))
	if m.currentView != ViewCharacters {
		t.Fatalf("view = %v, want Characters", m.currentView)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.currentView != ViewBatches {
		t.Fatalf("view = %v, want Batches", m.currentView)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.currentView != ViewFindings {
		t.Fatalf("tab should wrap to Findings, got %v", m.currentView)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.currentView != ViewLogs {
		t.Fatalf("shift+tab should wrap to Logs, got %v", m.currentView)
	}
}

func TestHelpOverlayClosesOnAnyKey(t *testing.T) {
	m, _ := newTestModel(t, &stubSaver{})

	m = send(t, m, runeKey('?'))
	if !m.showHelp {
		t.Fatal("? should open help")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not rendered")
	}
	m = send(t, m, runeKey('2'))
	if m.showHelp || m.currentView != ViewFindings {
		t.Fatal("the key that closes help should not be handled further")
	}
}

func TestCycleProjectSelectsAndPersists(t *testing.T) {
	store := &state.Store{}
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	refreshed := make(chan struct{}, 1)

	m := New(Options{
		Store:     store,
		PrefsPath: prefsPath,
		Refresh: func(context.Context) error {
			refreshed <- struct{}{}
			return nil
		},
	})
	snap := state.Snapshot{HasData: true}
	snap.Projects = []studio.Project{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	snap.ProjectID = "a"
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = send(t, m, snapshotMsg(snap))

	m, cmd := sendCmd(t, m, runeKey('['))
	if got := store.SelectedProject(); got != "c" {
		t.Fatalf("selected project = %q, want c (wrapped)", got)
	}
	if cmd == nil {
		t.Fatal("switching project should request a refresh")
	}
	if _, ok := cmd().(refreshDoneMsg); !ok {
		t.Fatal("refresh command returned the wrong message")
	}
	select {
	case <-refreshed:
	default:
		t.Fatal("refresh hook not called")
	}
	if got := prefs.Load(prefsPath).LastProject; got != "c" {
		t.Fatalf("persisted LastProject = %q, want c", got)
	}

	m = send(t, m, runeKey(']'))
	if got := store.SelectedProject(); got != "a" {
		t.Fatalf("selected project = %q, want a", got)
	}
	if m.selected[ViewFindings] != 0 {
		t.Fatal("selection should reset on project change")
	}
}

func TestCycleThemePersists(t *testing.T) {
	m, _ := newTestModel(t, &stubSaver{})
	start := m.theme.Name

	m = send(t, m, runeKey('T'))
	if m.theme.Name == start {
		t.Fatalf("theme did not change from %q", start)
	}
	if got := prefs.Load(m.prefsPath).Theme; got != m.theme.Name {
		t.Fatalf("persisted theme = %q, want %q", got, m.theme.Name)
	}
}

func TestSelectionClampsToRows(t *testing.T) {
	findings := []studio.Finding{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	m, _ := newTestModel(t, &stubSaver{}, findings...)

	m = send(t, m, runeKey('G'))
	if m.selected[ViewFindings] != 2 {
		t.Fatalf("G selected %d, want 2", m.selected[ViewFindings])
	}
	m = send(t, m, runeKey('j'))
	if m.selected[ViewFindings] != 2 {
		t.Fatal("selection moved past the last row")
	}

	snap := m.snapshot
	snap.Findings = findings[:1]
	m = send(t, m, snapshotMsg(snap))
	if m.selected[ViewFindings] != 0 {
		t.Fatalf("selection = %d after rows shrank, want 0", m.selected[ViewFindings])
	}
}

func TestEditEventRearmsWait(t *testing.T) {
	events := make(chan string, 1)
	m := New(Options{EditEvents: events, PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})

	events <- "f1"
	m, cmd := sendCmd(t, m, editEventMsg("f0"))
	if cmd == nil {
		t.Fatal("edit event should re-arm the wait command")
	}
	if got, ok := cmd().(editEventMsg); !ok || string(got) != "f1" {
		t.Fatalf("next event = %v, want f1", got)
	}

	close(events)
	_, cmd = sendCmd(t, m, editEventMsg("f1"))
	if _, ok := cmd().(editEventsClosedMsg); !ok {
		t.Fatal("closed channel should stop the wait loop")
	}
}

func TestRenderSmoke(t *testing.T) {
	box := studio.BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}
	m, _ := newTestModel(t, &stubSaver{},
		studio.Finding{ID: "f1", AssetName: "hero.png", Severity: "high", Category: "anatomy", Box: &box},
		studio.Finding{ID: "f2", AssetName: "villain.png", Severity: "low"},
	)
	snap := m.snapshot
	snap.Tasks = []studio.Task{{ID: "t1", Title: "Fix hands", Subtasks: []studio.Subtask{{ID: "s1", Title: "left", Status: "done"}}}}
	snap.Characters = []studio.Character{{ID: "c1", Name: "Hero", Tags: []string{"lead"}}}
	snap.Batches = []studio.Batch{{ID: "b1", Kind: "scan", Status: "running", Total: 10, Processed: 4}}
	m = send(t, m, snapshotMsg(snap))

	checks := map[string]string{
		"1": "hero.png",
		"2": "Fix hands",
		"3": "Hero",
		"4": "40%",
		"5": "Logs",
	}
	for keyName, want := range checks {
		m = send(t, m, runeKey(rune(keyName[0])))
		if view := m.View(); !strings.Contains(view, want) {
			t.Errorf("view %s missing %q", keyName, want)
		}
	}
}

func TestQuitGuardsUnsavedBoxes(t *testing.T) {
	box := studio.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}
	m, boxes := newTestModel(t, &stubSaver{}, studio.Finding{ID: "f1", Box: &box})

	boxes.Initialize("f1", box)
	boxes.Update("f1", studio.BoundingBox{X: 0.2, Y: 0.1, Width: 0.2, Height: 0.2})

	m, cmd := sendCmd(t, m, runeKey('Q'))
	if cmd != nil {
		t.Fatal("first Q with unsaved boxes should not quit")
	}
	if !m.quitArmed || !strings.Contains(m.flash, "1 unsaved") {
		t.Fatalf("quit not armed: armed=%v flash=%q", m.quitArmed, m.flash)
	}

	m = send(t, m, runeKey('j'))
	if m.quitArmed {
		t.Fatal("any other key should disarm the quit guard")
	}

	m = send(t, m, runeKey('Q'))
	_, cmd = sendCmd(t, m, runeKey('Q'))
	if cmd == nil {
		t.Fatal("second Q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("second Q did not return tea.Quit")
	}
}

func TestQuitWithoutUnsavedBoxes(t *testing.T) {
	m, _ := newTestModel(t, &stubSaver{})

	_, cmd := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c did not return tea.Quit")
	}
}
