package session

import "errors"

var (
	// ErrClosed is returned when no session is open.
	ErrClosed = errors.New("session closed")

	// ErrUnknownVersion is returned when selecting an id absent from the
	// version list.
	ErrUnknownVersion = errors.New("unknown version")

	// ErrInvalidState is returned when selection is attempted before the
	// version list has loaded or after the session failed.
	ErrInvalidState = errors.New("invalid session state")

	// ErrPreview wraps preview fetch failures. The session stays usable in
	// PreviewUnavailable.
	ErrPreview = errors.New("preview unavailable")
)
