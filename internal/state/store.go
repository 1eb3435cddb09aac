package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/framer/internal/studio"
)

// Data is one successful poll of the backend. Everything except Projects is
// scoped to ProjectID.
type Data struct {
	Projects   []studio.Project
	ProjectID  string
	Tasks      []studio.Task
	Characters []studio.Character
	Findings   []studio.Finding
	Batches    []studio.Batch
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Data
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Project returns the project the rest of the snapshot belongs to.
func (s Snapshot) Project() (studio.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == s.ProjectID {
			return p, true
		}
	}
	return studio.Project{}, false
}

// Finding looks up a finding by id.
func (s Snapshot) Finding(id string) (studio.Finding, bool) {
	for _, f := range s.Findings {
		if f.ID == id {
			return f, true
		}
	}
	return studio.Finding{}, false
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	selected string
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(data *Data, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if data != nil {
		s.snapshot.Data = cloneData(*data)
		s.snapshot.HasData = true
	} else {
		s.snapshot.Data = Data{}
		s.snapshot.HasData = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Data = cloneData(s.snapshot.Data)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// SelectProject records the project the operator wants to look at. The
// poller picks it up on its next refresh.
func (s *Store) SelectProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// SelectedProject returns the operator's project choice, which may be empty.
func (s *Store) SelectedProject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func cloneData(d Data) Data {
	out := Data{
		ProjectID: d.ProjectID,
		Projects:  cloneSlice(d.Projects),
		Batches:   cloneSlice(d.Batches),
	}
	if len(d.Tasks) > 0 {
		out.Tasks = make([]studio.Task, len(d.Tasks))
		for i, task := range d.Tasks {
			task.Subtasks = cloneSlice(task.Subtasks)
			out.Tasks[i] = task
		}
	}
	if len(d.Characters) > 0 {
		out.Characters = make([]studio.Character, len(d.Characters))
		for i, c := range d.Characters {
			c.Tags = cloneSlice(c.Tags)
			out.Characters[i] = c
		}
	}
	if len(d.Findings) > 0 {
		out.Findings = make([]studio.Finding, len(d.Findings))
		for i, f := range d.Findings {
			if f.Box != nil {
				box := *f.Box
				f.Box = &box
			}
			f.Metadata = cloneSlice(f.Metadata)
			out.Findings[i] = f
		}
	}
	return out
}

func cloneSlice[S ~[]E, E any](s S) S {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}
