// Package config loads the tracklist configuration file.
//
// # Overview
//
// tracklist needs to know where mpv's IPC socket lives, how to start mpv when it
// is not running, how long to wait on each IPC call, and where to keep its own
// state files. All of it lives in a single optional TOML file.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tracklist/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults for those fields
//
// # TOML Format
//
//	socket_path = "/tmp/mpvsocket"
//	mpv_binary = "mpv"
//	mpv_args = ["--no-video"]
//	call_timeout = "500ms"
//	probe_timeout = "250ms"
//	poll_interval = "2s"
//	state_dir = "~/.config/tracklist"
//	log_file = "~/.local/state/tracklist/tracklist.log"
//	log_level = "info"
//	discover_patterns = ["/tmp/mpvsocket*", "/tmp/mpv*.sock"]
//	notify = false
//	metrics_addr = ""
//
// Durations use time.ParseDuration syntax. Tilde expansion is applied to every
// path field; discover patterns additionally expand environment variables.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML parse failures and invalid
// durations. A missing file is not an error.
package config
