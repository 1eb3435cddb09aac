// Package logtail reads the tail of framer's log file for the logs view.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// O(maxLines) however large the file grows. A missing file is not an error.
// The logs view simply shows nothing until the first entry is written.
//
// Parse decodes one zap JSON record into time, level, message and the
// remaining fields sorted by key. Lines that are not JSON (a panic trace, for
// instance) are kept verbatim with level "raw".
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//	for _, raw := range lines {
//		entry := logtail.Parse(raw)
//		...
//	}
package logtail
