package camera

import "errors"

// Sentinel errors for frame sources.
var (
	ErrClosed    = errors.New("camera closed")
	ErrReadFrame = errors.New("reading frame failed")
)
