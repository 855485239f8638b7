// Package config loads serialterm settings.
//
// Settings come from, in increasing priority:
//
//   - built-in defaults (Default)
//   - a TOML file
//   - SERIALTERM_ environment variables
//   - command-line flags, applied by the caller
//
// # File Format
//
//	[serial]
//	device = "/dev/ttyUSB0"
//	baud = 115200
//	read_timeout = "50ms"
//
//	[buffer]
//	max_packet_size = 4096
//	max_total_size = 1048576
//	packet_window = "200ms"
//	notify_threshold = 4
//
//	[screen]
//	width = 80
//	height = 24
//	size_upper_bound = 100000
//	trim_hysteresis = 10000
//	max_lines = 10000
//	show_control_chars = false
//	reset_clears_style = true
//
//	[display]
//	refresh_interval = "40ms"
//
//	[logging]
//	level = "info"
//
//	[capture]
//	path = "session.zst"
//	compress = true
//
// # Environment
//
// Every key can be overridden by SERIALTERM_<SECTION>_<KEY>, for example
// SERIALTERM_SCREEN_WIDTH=132. SERIALTERM_DEVICE, SERIALTERM_BAUD and
// SERIALTERM_LOG_LEVEL are accepted as short forms.
//
// # Reloading
//
// Watcher reloads the file when it changes. Only some settings can take
// effect in a running session; see the session package.
package config
