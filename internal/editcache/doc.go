// Package editcache keeps locally edited values and persists them when an
// edit finishes.
//
// # Overview
//
// A Session tracks one Entry per entity id. An entry holds the last
// server-confirmed value, the working value, and dirty and editing flags.
// Next to each entry sits a Status (idle, saving, saved, error) that the UI
// renders as a badge.
//
//	Initialize ──> StartEditing ──> Update* ──> FinishEditing ──> save(ctx, id, v)
//	                     │                            │
//	                     └── CancelEditing            ├─ ok:   saved, idle after 2s
//	                                                  └─ fail: error, idle after 5s
//
// Update never persists, so it may be called on every keystroke or pointer
// move. Only FinishEditing starts a save, and only when the entry is dirty.
//
// # Saves
//
// FinishEditing returns immediately with a *SaveTask. The injected SaveFunc runs
// on its own goroutine with a context owned by the session. When FinishEditing
// is called again for an id whose save is still running, the older save's
// context is cancelled and its result is discarded (last write wins). The
// older task resolves with ErrSuperseded. CancelEditing and ResetToOriginal
// supersede a running save the same way and put the status back to idle.
//
// Sync ignores server reads taken at or before an entry's LastSaved, so a poll
// that raced a save cannot restore the old value.
//
// A failed save leaves the entry dirty and its working value untouched, so the
// operator can retry by finishing the edit again. Failures are logged and
// reported only through SaveStatus and SaveTask.Err.
//
// # Status resets
//
// The saved and error statuses revert to idle after a delay. Each revert is a
// timer tagged with a per-id generation. Any later transition stops the timer,
// and a timer that already fired checks the generation before touching state.
//
// # Concurrency
//
// All transitions happen under one mutex and are atomic with respect to each
// other. The SaveFunc and the OnChange observer are always called without the
// lock held. Close cancels outstanding saves, stops timers and waits for the
// save goroutines.
package editcache
