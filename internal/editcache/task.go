package editcache

import (
	"context"
	"errors"
)

var (
	// ErrSuperseded resolves a save whose id was saved again before it finished.
	ErrSuperseded = errors.New("save superseded by a newer save")
	// ErrClosed resolves a save that was still running when the session closed.
	ErrClosed = errors.New("edit session closed")
)

// SaveTask tracks one call to the persistence callback.
type SaveTask struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func newSaveTask(id string, cancel context.CancelFunc) *SaveTask {
	return &SaveTask{id: id, cancel: cancel, done: make(chan struct{})}
}

// ID returns the entity id being saved.
func (t *SaveTask) ID() string {
	return t.id
}

// Done is closed once the save outcome has been applied (or discarded).
func (t *SaveTask) Done() <-chan struct{} {
	return t.done
}

// Err returns the save outcome. It is nil while the save is still running.
func (t *SaveTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the save resolves or ctx ends.
func (t *SaveTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SaveTask) finish(err error) {
	t.err = err
	close(t.done)
}
