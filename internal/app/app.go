package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/framer/internal/config"
	"github.com/five82/framer/internal/editcache"
	"github.com/five82/framer/internal/logging"
	"github.com/five82/framer/internal/prefs"
	"github.com/five82/framer/internal/state"
	"github.com/five82/framer/internal/studio"
	"github.com/five82/framer/internal/ui"
)

// Options configure the framer application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/framer/prefs.toml
	PollEvery  int    // seconds; zero uses default
	Project    string // overrides the configured project
}

const (
	preflightTimeout = 3 * time.Second
	editEventBuffer  = 64
)

// Run boots the framer TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Project != "" {
		cfg.Project = opts.Project
	}

	logger, err := logging.New(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	userPrefs := prefs.Load(opts.PrefsPath)

	client, err := studio.NewClient(cfg.APIURL,
		studio.WithToken(cfg.APIToken),
		studio.WithMutationRate(cfg.SaveRate),
	)
	if err != nil {
		return fmt.Errorf("init studio client: %w", err)
	}

	if err := ensureAvailable(ctx, client); err != nil {
		logger.Error("backend unavailable", zap.String("api_url", cfg.APIURL), zap.Error(err))
		return err
	}
	logger.Info("framer starting", zap.String("api_url", cfg.APIURL), zap.String("project", cfg.Project))

	store := &state.Store{}
	if cfg.Project == "" && userPrefs.LastProject != "" {
		store.SelectProject(userPrefs.LastProject)
	}

	events := make(chan string, editEventBuffer)
	boxes := editcache.New(
		withTimeout(client.SaveFindingBox, cfg.SaveTimeout),
		editcache.Options{
			SavedResetDelay: cfg.SavedReset,
			ErrorResetDelay: cfg.ErrorReset,
			Logger:          logger.Named("editcache"),
			OnChange:        notifyChannel(events),
		},
	)
	defer boxes.Close()

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	poller := Poller{
		Store:    store,
		Client:   client,
		Boxes:    boxes,
		Logger:   logger.Named("poller"),
		Interval: interval,
		Project:  cfg.Project,
	}

	// Populate the store before the UI draws its first frame.
	if err := poller.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed", zap.Error(err))
	}
	poller.Start(ctx)

	uiOpts := ui.Options{
		Context:    ctx,
		Store:      store,
		Boxes:      boxes,
		EditEvents: events,
		Refresh:    poller.Refresh,
		Config:     &cfg,
		Logger:     logger.Named("ui"),
		PollTick:   time.Second,
		ThemeName:  userPrefs.Theme,
		PrefsPath:  opts.PrefsPath,
	}
	err = ui.Run(uiOpts)

	if pending := boxes.DirtyIDs(); len(pending) > 0 {
		logger.Warn("exiting with unsaved bounding boxes", zap.Strings("findings", pending))
	}
	return err
}

// ensureAvailable fails fast when the backend cannot be reached at startup.
func ensureAvailable(ctx context.Context, client studio.Fetcher) error {
	checkCtx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	health, err := client.Health(checkCtx)
	if err != nil {
		return fmt.Errorf("studio backend unreachable: %w", err)
	}
	if !health.OK() {
		return fmt.Errorf("studio backend unhealthy: status %q", health.Status)
	}
	return nil
}

// withTimeout bounds every save with its own deadline.
func withTimeout[V any](save editcache.SaveFunc[V], timeout time.Duration) editcache.SaveFunc[V] {
	if timeout <= 0 {
		return save
	}
	return func(ctx context.Context, id string, value V) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return save(ctx, id, value)
	}
}

// notifyChannel forwards change notifications without ever blocking the
// session. A full channel drops the id; the UI tick redraws anyway.
func notifyChannel(ch chan<- string) func(string) {
	return func(id string) {
		select {
		case ch <- id:
		default:
		}
	}
}
