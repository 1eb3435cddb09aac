// Package ui implements framer's Bubble Tea terminal interface.
//
// The root Model follows the usual Init/Update/View cycle. A one-second tick
// pulls a fresh state.Snapshot from the store the poller fills. Edit
// notifications from the bounding-box session arrive on a channel that a
// waiting tea.Cmd drains, so save badges change without waiting for the next
// tick.
//
// # Views
//
//   - Findings: findings table with dirty markers and save badges, plus a
//     detail pane that previews the bounding box
//   - Tasks: tasks and their subtasks
//   - Characters: characters with the number of findings that reference them
//   - Batches: batch jobs with progress bars
//   - Logs: the tail of framer's own log file
//
// # Box editing
//
// Pressing enter on a finding starts an edit session for its box. Movement
// and resize keys call Session.Update with a clamped box. Enter finishes the
// edit and starts the save, esc discards it and r restores the saved box.
// The editor owns the keyboard until it closes; only ctrl+c escapes it.
package ui
