package worker

import (
	"github.com/okian/presence/pkg/logger"
)

// Option applies a configuration option to the RecognitionWorker.
type Option func(*RecognitionWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *RecognitionWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithConfidenceFloor sets the minimum detector confidence for a face to be
// processed at all.
func WithConfidenceFloor(floor float64) Option {
	return func(w *RecognitionWorker) {
		if floor >= 0 && floor <= 1 {
			w.confidenceFloor = floor
		}
	}
}

// WithFaceSize sets the square side length of the face crops handed to the
// embedder.
func WithFaceSize(size int) Option {
	return func(w *RecognitionWorker) {
		if size > 0 {
			w.faceSize = size
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *RecognitionWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
