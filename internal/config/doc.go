// Package config loads the client configuration.
//
// # Configuration Discovery
//
// Load reads the given path, or ~/.config/loom/config.toml when none is
// given. A missing file is not an error: Default is returned instead, so the
// client works without any configuration. Fields that are absent or blank in
// the file keep their defaults.
//
// # TOML Format
//
//	url = "ws://127.0.0.1:8080/"
//	target = "lona"
//	title = "loom"
//	update_address_bar = true
//	update_title = true
//	follow_redirects = true
//	follow_http_redirects = true
//	scroll_to_top_on_view_start = true
//	ping_interval = 60        # seconds, 0 disables
//	view_start_timeout = 2    # seconds, 0 disables
//	input_event_timeout = 2   # seconds, 0 disables
//	log_dir = "~/.local/share/loom/logs"
//
// Tilde expansion is performed for the config path and log_dir. The client
// log is written to <log_dir>/loom.log.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML syntax errors, negative
// durations and URLs that are not ws:// or wss://.
package config
