package vision

import "errors"

// Sentinel errors for vision backends.
var (
	ErrNoFace = errors.New("no face in crop")
	ErrClosed = errors.New("backend closed")
)
