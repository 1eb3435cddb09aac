package editcache

import "time"

// Status is the persistence state shown next to an edited entry.
type Status int

const (
	StatusIdle Status = iota
	StatusSaving
	StatusSaved
	StatusError
)

// String returns the lowercase label used in badges and logs.
func (s Status) String() string {
	switch s {
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// statusTracker holds per-id statuses and their pending revert-to-idle timers.
// It is not safe for concurrent use; the owning Session serializes access.
type statusTracker struct {
	statuses map[string]Status
	timers   map[string]*time.Timer
	gens     map[string]uint64
}

func newStatusTracker() statusTracker {
	return statusTracker{
		statuses: make(map[string]Status),
		timers:   make(map[string]*time.Timer),
		gens:     make(map[string]uint64),
	}
}

func (t *statusTracker) get(id string) Status {
	return t.statuses[id]
}

// set records s for id and invalidates any pending revert. The returned
// generation identifies this transition for a later revert.
func (t *statusTracker) set(id string, s Status) uint64 {
	t.stop(id)
	t.gens[id]++
	t.statuses[id] = s
	return t.gens[id]
}

func (t *statusTracker) schedule(id string, after time.Duration, fire func()) {
	t.timers[id] = time.AfterFunc(after, fire)
}

// revert moves id back to idle if no transition happened since gen.
func (t *statusTracker) revert(id string, gen uint64) bool {
	if t.gens[id] != gen {
		return false
	}
	delete(t.timers, id)
	t.statuses[id] = StatusIdle
	return true
}

func (t *statusTracker) stop(id string) {
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
}

func (t *statusTracker) stopAll() {
	for id := range t.timers {
		t.stop(id)
	}
}
