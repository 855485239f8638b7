// Package logx holds logger helpers shared by serialterm packages.
package logx

import "pkt.systems/pslog"

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID string) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// WithDevice annotates the logger with the serial device and its speed.
func WithDevice(log pslog.Logger, device string, baud int) pslog.Logger {
	if device != "" {
		log = log.With("device", device)
	}
	if baud > 0 {
		log = log.With("baud", baud)
	}
	return log
}
