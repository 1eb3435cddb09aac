// Package state provides thread-safe state management for framer.
//
// # Overview
//
// Store is the meeting point between the background poller and the UI. The
// poller writes a complete Data value after every successful refresh; the UI
// reads a Snapshot on every tick.
//
//	Producer (poller)              Consumer (UI)
//	FetchProjects()                store.Snapshot()
//	FetchFindings() ...  ──────>   render tables
//	store.Update()        (mutex)
//
// # Update Semantics
//
//	store.Update(&data, nil)   // replace everything, clear LastError
//	store.Update(nil, err)     // keep old data, record err, count failure
//
// The UI keeps showing the last good data while the backend is unreachable.
// After two consecutive failures IsOffline reports true so the header can
// say so.
//
// # Defensive Copying
//
// Update and Snapshot deep-copy slices, nested subtasks, tags, metadata and
// bounding boxes. Bounding boxes are pointers in the wire format, so a shallow
// copy would let the UI mutate the poller's view of a finding.
//
// Local edits to bounding boxes do not live here. They live in an
// editcache.Session, which the poller feeds through Sync.
//
// # Project Selection
//
// SelectProject records which project the operator switched to. The poller
// reads SelectedProject on each refresh, so a switch shows up within one
// poll interval.
//
// The zero Store is ready to use.
package state
