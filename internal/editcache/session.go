package editcache

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSavedResetDelay = 2 * time.Second
	DefaultErrorResetDelay = 5 * time.Second
)

// SaveFunc persists value for id. A non-nil error marks the save as failed.
type SaveFunc[V any] func(ctx context.Context, id string, value V) error

// Entry is a point-in-time view of one edited value.
type Entry[V any] struct {
	Original  V
	Current   V
	Dirty     bool
	Editing   bool
	LastSaved time.Time
}

// Options tune a Session. The zero value uses the default delays and a no-op logger.
type Options struct {
	SavedResetDelay time.Duration
	ErrorResetDelay time.Duration
	Logger          *zap.Logger
	// OnChange, when set, is called after every state transition for id.
	// It runs outside the session lock and must not block.
	OnChange func(id string)
}

type entry[V any] struct {
	Entry[V]
	revision uint64
}

// Session owns the entries, save statuses and in-flight saves for one editing
// surface. It is safe for concurrent use.
type Session[V any] struct {
	save     SaveFunc[V]
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	entries  map[string]*entry[V]
	status   statusTracker
	inflight map[string]*SaveTask
	closed   bool
}

// New builds a Session that persists finished edits through save.
func New[V any](save SaveFunc[V], opts Options) *Session[V] {
	if opts.SavedResetDelay <= 0 {
		opts.SavedResetDelay = DefaultSavedResetDelay
	}
	if opts.ErrorResetDelay <= 0 {
		opts.ErrorResetDelay = DefaultErrorResetDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session[V]{
		save:     save,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*entry[V]),
		status:   newStatusTracker(),
		inflight: make(map[string]*SaveTask),
	}
}

// Initialize creates the entry for id. It does nothing if the entry exists.
func (s *Session[V]) Initialize(id string, original V) {
	s.mu.Lock()
	if _, ok := s.entries[id]; ok {
		s.mu.Unlock()
		return
	}
	s.entries[id] = &entry[V]{Entry: Entry[V]{Original: original, Current: original}}
	s.mu.Unlock()
	s.notify(id)
}

// Sync applies a value read from the server at readAt. Entries with local
// changes, an active edit or a save in flight are left alone, as are entries
// saved at or after readAt since the read may predate that save.
func (s *Session[V]) Sync(id string, server V, readAt time.Time) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.entries[id] = &entry[V]{Entry: Entry[V]{Original: server, Current: server}}
		s.mu.Unlock()
		s.notify(id)
		return
	}
	if e.Dirty || e.Editing || s.inflight[id] != nil || !readAt.After(e.LastSaved) {
		s.mu.Unlock()
		return
	}
	e.Original = server
	e.Current = server
	s.mu.Unlock()
	s.notify(id)
}

// CurrentValue returns the working value for id, or false if id is unknown.
func (s *Session[V]) CurrentValue(id string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		var zero V
		return zero, false
	}
	return e.Current, true
}

func (s *Session[V]) IsDirty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	return ok && e.Dirty
}

func (s *Session[V]) IsEditing(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	return ok && e.Editing
}

// Entry returns a copy of the entry for id.
func (s *Session[V]) Entry(id string) (Entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry[V]{}, false
	}
	return e.Entry, true
}

// SaveStatus returns the persistence status for id. Unknown ids are idle.
func (s *Session[V]) SaveStatus(id string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status.get(id)
}

// DirtyIDs lists ids with unsaved changes in sorted order.
func (s *Session[V]) DirtyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, e := range s.entries {
		if e.Dirty {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// StartEditing marks id as being edited. Unknown ids are ignored.
func (s *Session[V]) StartEditing(id string) {
	s.mutate(id, func(e *entry[V]) {
		e.Editing = true
	})
}

// Update replaces the working value without persisting it.
func (s *Session[V]) Update(id string, value V) {
	s.mutate(id, func(e *entry[V]) {
		e.Current = value
		e.Dirty = true
		e.revision++
	})
}

// CancelEditing discards unsaved changes and leaves edit mode. A save running
// for id is superseded.
func (s *Session[V]) CancelEditing(id string) {
	s.mutate(id, func(e *entry[V]) {
		s.supersede(id)
		e.Current = e.Original
		e.Dirty = false
		e.Editing = false
		e.revision++
	})
}

// ResetToOriginal discards unsaved changes but stays in edit mode. A save
// running for id is superseded.
func (s *Session[V]) ResetToOriginal(id string) {
	s.mutate(id, func(e *entry[V]) {
		s.supersede(id)
		e.Current = e.Original
		e.Dirty = false
		e.revision++
	})
}

// FinishEditing leaves edit mode and, when id has unsaved changes, starts
// saving the working value. It returns the started save or nil. A save already
// running for id is cancelled and its result discarded.
func (s *Session[V]) FinishEditing(id string) *SaveTask {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	e.Editing = false
	if !e.Dirty || s.closed {
		s.mu.Unlock()
		s.notify(id)
		return nil
	}

	s.supersede(id)
	ctx, cancel := context.WithCancel(s.ctx)
	task := newSaveTask(id, cancel)
	s.inflight[id] = task
	value, revision := e.Current, e.revision
	s.status.set(id, StatusSaving)
	s.wg.Add(1)
	s.mu.Unlock()

	s.notify(id)
	go s.persist(ctx, task, value, revision)
	return task
}

// Close cancels running saves, stops pending status resets and waits for save
// goroutines to return. Queries keep working after Close.
func (s *Session[V]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.status.stopAll()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Session[V]) persist(ctx context.Context, task *SaveTask, value V, revision uint64) {
	defer s.wg.Done()
	defer task.cancel()

	err := s.save(ctx, task.id, value)

	s.mu.Lock()
	if s.closed {
		delete(s.inflight, task.id)
		s.status.set(task.id, StatusIdle)
		s.mu.Unlock()
		task.finish(ErrClosed)
		s.notify(task.id)
		return
	}
	if s.inflight[task.id] != task {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded save", zap.String("id", task.id), zap.Error(err))
		task.finish(ErrSuperseded)
		return
	}
	delete(s.inflight, task.id)

	e := s.entries[task.id]
	if err != nil {
		s.setStatus(task.id, StatusError, s.opts.ErrorResetDelay)
		s.mu.Unlock()
		s.logger.Warn("save failed", zap.String("id", task.id), zap.Error(err))
		task.finish(err)
		s.notify(task.id)
		return
	}

	e.Original = value
	e.LastSaved = s.now()
	// Edits made while the save was running are still unsaved.
	e.Dirty = e.revision != revision
	s.setStatus(task.id, StatusSaved, s.opts.SavedResetDelay)
	s.mu.Unlock()

	s.logger.Debug("save completed", zap.String("id", task.id))
	task.finish(nil)
	s.notify(task.id)
}

// supersede cancels the save running for id, if any, and drops it so its
// result is discarded. It must be called with s.mu held.
func (s *Session[V]) supersede(id string) {
	prev := s.inflight[id]
	if prev == nil {
		return
	}
	prev.cancel()
	delete(s.inflight, id)
	s.status.set(id, StatusIdle)
}

// setStatus must be called with s.mu held.
func (s *Session[V]) setStatus(id string, st Status, resetAfter time.Duration) {
	gen := s.status.set(id, st)
	if resetAfter <= 0 || s.closed {
		return
	}
	s.status.schedule(id, resetAfter, func() {
		s.mu.Lock()
		reverted := s.status.revert(id, gen)
		s.mu.Unlock()
		if reverted {
			s.notify(id)
		}
	})
}

func (s *Session[V]) mutate(id string, fn func(*entry[V])) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(e)
	s.mu.Unlock()
	s.notify(id)
}

func (s *Session[V]) notify(id string) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(id)
	}
}
