package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/framer/internal/state"
	"github.com/five82/framer/internal/studio"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// BoxSyncer receives server-side bounding boxes after each refresh.
// *editcache.Session[studio.BoundingBox] implements it.
type BoxSyncer interface {
	Sync(id string, box studio.BoundingBox, readAt time.Time)
}

// Poller refreshes the store from the backend.
type Poller struct {
	Store    *state.Store
	Client   studio.Fetcher
	Boxes    BoxSyncer
	Logger   *zap.Logger
	Interval time.Duration
	// Project is used when the operator has not picked one, or picked one
	// that no longer exists.
	Project string
}

// Start launches a background goroutine that refreshes the store until ctx
// is cancelled. Failed refreshes back off exponentially. It returns immediately.
func (p Poller) Start(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := p.logger()

	go func() {
		failures := 0
		for {
			wait := interval
			if err := p.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				wait = calculateBackoff(failures, interval)
				logger.Warn("poll failed",
					zap.Error(err),
					zap.Int("failures", failures),
					zap.Duration("retry_in", wait))
			} else {
				failures = 0
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// Refresh performs one poll: projects first, then the active project's
// resources concurrently. The outcome is always recorded in the store.
func (p Poller) Refresh(ctx context.Context) error {
	readAt := time.Now()
	data, err := p.fetch(ctx)
	if err != nil {
		p.Store.Update(nil, err)
		return err
	}
	p.Store.Update(data, nil)

	if p.Boxes != nil {
		for _, f := range data.Findings {
			if f.Box != nil {
				p.Boxes.Sync(f.ID, *f.Box, readAt)
			}
		}
	}
	return nil
}

func (p Poller) fetch(ctx context.Context) (*state.Data, error) {
	projects, err := p.Client.FetchProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	data := &state.Data{Projects: projects}
	data.ProjectID = chooseProject(projects, p.Store.SelectedProject(), p.Project)
	if data.ProjectID == "" {
		return data, nil
	}

	id := data.ProjectID
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := p.Client.FetchTasks(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch tasks: %w", err)
		}
		data.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		chars, err := p.Client.FetchCharacters(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch characters: %w", err)
		}
		data.Characters = chars
		return nil
	})
	g.Go(func() error {
		findings, err := p.Client.FetchFindings(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch findings: %w", err)
		}
		data.Findings = findings
		return nil
	})
	g.Go(func() error {
		batches, err := p.Client.FetchBatches(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch batches: %w", err)
		}
		data.Batches = batches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (p Poller) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// chooseProject prefers the operator's selection, then the configured
// project, then the first project listed.
func chooseProject(projects []studio.Project, selected, configured string) string {
	if len(projects) == 0 {
		return ""
	}
	for _, want := range []string{selected, configured} {
		if want == "" {
			continue
		}
		for _, p := range projects {
			if p.ID == want {
				return p.ID
			}
		}
	}
	return projects[0].ID
}

// calculateBackoff doubles base for every consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
