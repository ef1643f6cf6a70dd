package asset

import "errors"

var (
	// ErrNotFound is returned when no record exists for an asset ID.
	ErrNotFound = errors.New("asset not found")
	// ErrDecode is returned when media bytes cannot be decoded for detection.
	ErrDecode = errors.New("media could not be decoded")
	// ErrValidation is returned for malformed input; nothing is processed.
	ErrValidation = errors.New("invalid input")
	// ErrStore is returned when the record store backend fails.
	ErrStore = errors.New("record store unavailable")
	// ErrUnsupportedKind is returned for files whose extension maps to no kind.
	ErrUnsupportedKind = errors.New("unsupported file type")
)
