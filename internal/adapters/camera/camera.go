// Package camera provides frame sources for the capture loop: a webcam
// backed by OpenCV and a synthetic source for development without hardware.
package camera

import (
	"context"
	"image"
)

// Source produces frames for the pipeline.
type Source interface {
	// Read returns the next frame. It returns an error when the source
	// cannot produce a frame; the capture loop decides whether to retry.
	Read(ctx context.Context) (*image.RGBA, error)

	// Close releases the source.
	Close() error
}
