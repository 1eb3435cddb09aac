// Package config loads framer's configuration file.
//
// # Overview
//
// framer needs a handful of settings: where the studio backend lives, how to
// authenticate against it, which project to open, where to write its log, and
// how the bounding-box editor should behave. All of them have defaults, so the
// file is optional.
//
// # Resolution Order
//
//  1. Defaults
//  2. The TOML file (explicit path, or ~/.config/framer/config.toml)
//  3. FRAMER_* environment variables, parsed with caarlos0/env
//
// A missing file is not an error. Empty or whitespace-only values in the file
// fall through to the defaults.
//
// # TOML Format
//
//	api_url      = "http://127.0.0.1:8000"
//	api_token    = ""
//	project      = ""            # empty selects the first project
//	log_dir      = "~/.local/share/framer"
//	log_level    = "info"
//	save_timeout = "10s"         # per bounding-box save
//	saved_reset  = "2s"          # how long the "saved" badge stays
//	error_reset  = "5s"          # how long the "error" badge stays
//	nudge_step   = 0.01          # arrow-key step in normalized units
//	save_rate    = 5             # max writes per second, 0 disables
//
// # Environment Overrides
//
//   - FRAMER_API_URL
//   - FRAMER_API_TOKEN
//   - FRAMER_PROJECT
//   - FRAMER_LOG_LEVEL
//
// # Error Handling
//
// Load returns errors for unreadable files, invalid TOML, unparsable or
// non-positive durations, and out-of-range numbers. Every parse error message
// starts with "parse config" and names the offending key.
package config
