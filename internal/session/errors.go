package session

import "errors"

// Sentinel errors for the session package.
var (
	// ErrSessionClosed is returned when operations are attempted on a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrInvalidSize is returned for a resize below the minimum dimensions.
	ErrInvalidSize = errors.New("invalid screen size")
)
