package transport

import "errors"

// Sentinel errors for the transport package.
var (
	// ErrPortClosed is returned when operations are attempted on a closed port.
	ErrPortClosed = errors.New("port is closed")

	// ErrNoDevice is returned when no device path is configured.
	ErrNoDevice = errors.New("no serial device configured")

	// ErrInvalidSettings is returned for unsupported line settings.
	ErrInvalidSettings = errors.New("invalid serial settings")
)
