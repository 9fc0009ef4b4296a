package overlay

import "errors"

// Sentinel kinds for overlay errors.
var (
	ErrEmptyRegion = errors.New("empty face region")
)
