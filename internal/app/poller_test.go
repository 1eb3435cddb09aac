package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/framer/internal/editcache"
	"github.com/five82/framer/internal/state"
	"github.com/five82/framer/internal/studio"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestChooseProject(t *testing.T) {
	projects := []studio.Project{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	tests := []struct {
		name       string
		selected   string
		configured string
		want       string
	}{
		{"selection wins", "c", "b", "c"},
		{"configured when nothing selected", "", "b", "b"},
		{"stale selection falls back to configured", "gone", "b", "b"},
		{"first project otherwise", "", "", "a"},
		{"unknown configured falls back to first", "", "zzz", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chooseProject(projects, tt.selected, tt.configured); got != tt.want {
				t.Fatalf("chooseProject = %q, want %q", got, tt.want)
			}
		})
	}
	if got := chooseProject(nil, "a", "b"); got != "" {
		t.Fatalf("chooseProject(nil) = %q, want empty", got)
	}
}

type fakeFetcher struct {
	mu        sync.Mutex
	projects  []studio.Project
	findings  map[string][]studio.Finding
	failOn    string
	health    studio.Health
	requested []string
	// duringFindings runs inside FetchFindings, after the server was read.
	duringFindings func()
}

func (f *fakeFetcher) record(what string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, what)
	if f.failOn == what {
		return errors.New(what + " exploded")
	}
	return nil
}

func (f *fakeFetcher) Health(context.Context) (studio.Health, error) {
	if err := f.record("health"); err != nil {
		return studio.Health{}, err
	}
	return f.health, nil
}

func (f *fakeFetcher) FetchProjects(context.Context) ([]studio.Project, error) {
	if err := f.record("projects"); err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeFetcher) FetchTasks(_ context.Context, id string) ([]studio.Task, error) {
	if err := f.record("tasks"); err != nil {
		return nil, err
	}
	return []studio.Task{{ID: "t-" + id}}, nil
}

func (f *fakeFetcher) FetchCharacters(_ context.Context, id string) ([]studio.Character, error) {
	if err := f.record("characters"); err != nil {
		return nil, err
	}
	return []studio.Character{{ID: "c-" + id}}, nil
}

func (f *fakeFetcher) FetchFindings(_ context.Context, id string) ([]studio.Finding, error) {
	if err := f.record("findings"); err != nil {
		return nil, err
	}
	if f.duringFindings != nil {
		f.duringFindings()
	}
	return f.findings[id], nil
}

func (f *fakeFetcher) FetchBatches(_ context.Context, id string) ([]studio.Batch, error) {
	if err := f.record("batches"); err != nil {
		return nil, err
	}
	return []studio.Batch{{ID: "b-" + id}}, nil
}

type syncRecorder struct {
	boxes  map[string]studio.BoundingBox
	readAt time.Time
}

func (s *syncRecorder) Sync(id string, box studio.BoundingBox, readAt time.Time) {
	s.readAt = readAt
	if s.boxes == nil {
		s.boxes = make(map[string]studio.BoundingBox)
	}
	s.boxes[id] = box
}

func TestPoller_RefreshPopulatesStoreAndSyncsBoxes(t *testing.T) {
	box := studio.BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}
	fetcher := &fakeFetcher{
		projects: []studio.Project{{ID: "p1"}, {ID: "p2"}},
		findings: map[string][]studio.Finding{
			"p2": {{ID: "f1", Box: &box}, {ID: "f2"}},
		},
	}
	store := &state.Store{}
	store.SelectProject("p2")
	syncer := &syncRecorder{}

	p := Poller{Store: store, Client: fetcher, Boxes: syncer}
	before := time.Now()
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	snap := store.Snapshot()
	if snap.ProjectID != "p2" || len(snap.Projects) != 2 {
		t.Fatalf("snapshot project = %q (%d projects), want p2", snap.ProjectID, len(snap.Projects))
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != "t-p2" {
		t.Fatalf("tasks = %#v, want t-p2", snap.Tasks)
	}
	if len(snap.Characters) != 1 || len(snap.Batches) != 1 || len(snap.Findings) != 2 {
		t.Fatalf("snapshot = %#v, want characters, batches and findings", snap.Data)
	}
	if len(syncer.boxes) != 1 || syncer.boxes["f1"] != box {
		t.Fatalf("synced boxes = %#v, want only f1", syncer.boxes)
	}
	if syncer.readAt.Before(before) {
		t.Fatalf("readAt %v predates the refresh", syncer.readAt)
	}
}

func TestPoller_RefreshKeepsBoxSavedMidFetch(t *testing.T) {
	stale := studio.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}
	edited := studio.BoundingBox{X: 0.5, Y: 0.1, Width: 0.2, Height: 0.2}

	boxes := editcache.New(func(context.Context, string, studio.BoundingBox) error { return nil }, editcache.Options{})
	defer boxes.Close()
	boxes.Initialize("f1", stale)

	fetcher := &fakeFetcher{
		projects: []studio.Project{{ID: "p1"}},
		findings: map[string][]studio.Finding{"p1": {{ID: "f1", Box: &stale}}},
	}
	// The save lands after the server was read but before Sync runs.
	fetcher.duringFindings = func() {
		boxes.Update("f1", edited)
		if err := boxes.FinishEditing("f1").Wait(context.Background()); err != nil {
			t.Errorf("save failed: %v", err)
		}
	}

	p := Poller{Store: &state.Store{}, Client: fetcher, Boxes: boxes}
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	entry, _ := boxes.Entry("f1")
	if entry.Original != edited || entry.Current != edited || entry.Dirty {
		t.Fatalf("entry = %+v, want the saved box kept", entry)
	}
}

func TestPoller_RefreshFailureKeepsPreviousData(t *testing.T) {
	fetcher := &fakeFetcher{projects: []studio.Project{{ID: "p1"}}}
	store := &state.Store{}
	p := Poller{Store: store, Client: fetcher}

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh returned error: %v", err)
	}

	fetcher.failOn = "findings"
	err := p.Refresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fetch findings") {
		t.Fatalf("Refresh error = %v, want fetch findings failure", err)
	}

	snap := store.Snapshot()
	if !snap.HasData || snap.ProjectID != "p1" {
		t.Fatalf("previous data lost: %#v", snap)
	}
	if snap.ConsecutiveFailures != 1 || snap.LastError == nil {
		t.Fatalf("failure not recorded: failures=%d err=%v", snap.ConsecutiveFailures, snap.LastError)
	}
}

func TestPoller_NoProjectsSkipsProjectFetches(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &state.Store{}
	p := Poller{Store: store, Client: fetcher}

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(fetcher.requested) != 1 || fetcher.requested[0] != "projects" {
		t.Fatalf("requests = %v, want only projects", fetcher.requested)
	}
	if snap := store.Snapshot(); !snap.HasData || snap.ProjectID != "" {
		t.Fatalf("snapshot = %#v, want empty data", snap)
	}
}

func TestPoller_StartStopsWithContext(t *testing.T) {
	fetcher := &fakeFetcher{projects: []studio.Project{{ID: "p1"}}}
	store := &state.Store{}
	ctx, cancel := context.WithCancel(context.Background())

	Poller{Store: store, Client: fetcher, Interval: 10 * time.Millisecond}.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for !store.Snapshot().HasData {
		if time.Now().After(deadline) {
			t.Fatal("poller never refreshed the store")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}
