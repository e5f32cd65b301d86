package rhasspy

import "errors"

// Domain errors for the intent source package.
var (
	// ErrBadIntent is returned when an intent message cannot be decoded
	// or names no intent. The message is skipped; the stream continues.
	ErrBadIntent = errors.New("rhasspy: malformed intent message")
)
