// Package app is framer's composition root.
//
// # Startup
//
// Run wires the packages together in a fixed order:
//
//  1. Load config from ~/.config/framer/config.toml plus FRAMER_* env overrides
//  2. Open the zap logger on the configured log file
//  3. Load UI preferences (theme, last project)
//  4. Build the studio client with the API token and mutation rate limit
//  5. Check /api/health; an unreachable backend is fatal at startup
//  6. Create the bounding-box edit session, saving through the client
//  7. Refresh once, then start the background poller
//  8. Run the TUI until the user quits or the context is cancelled
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        config file + env
//	       ├─────> logging.New()        JSON log file
//	       ├─────> studio.NewClient()   REST client
//	       ├─────> ensureAvailable()    pre-flight health check
//	       ├─────> editcache.New()      box edit session
//	       ├─────> Poller.Start()       background refresh
//	       └─────> ui.Run()             TUI (blocks)
//
//	Poller loop:
//	┌─────────────────────────────────────────┐
//	│ FetchProjects()                         │
//	│ errgroup: tasks, characters,            │
//	│           findings, batches             │
//	│ store.Update()                          │
//	│ session.Sync() for every finding box    │
//	└─────────────────────────────────────────┘
//
// # Error Handling
//
// Configuration, logger and pre-flight failures are returned from Run. Poll
// failures are recorded in the store and logged; the poller backs off
// exponentially up to 30 seconds and the UI keeps showing the last good data.
// Save failures surface through the edit session's error status.
//
// # Unsaved Edits
//
// Syncing never overwrites a box that has local changes, an open editor or a
// save in flight. Boxes still dirty when the UI exits are logged by id.
package app
