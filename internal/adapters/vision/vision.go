// Package vision abstracts face detection and embedding behind a single
// backend contract so the pipeline can run against dlib in production and a
// deterministic stub in development and tests.
package vision

import (
	"context"
	"image"

	"github.com/okian/presence/internal/domain/model"
)

// Backend detects faces and computes embeddings for face crops.
type Backend interface {
	// Detect locates faces in a full frame.
	Detect(ctx context.Context, img *image.RGBA) ([]model.Detection, error)

	// Embed computes an embedding for a single face crop. It returns
	// ErrNoFace when the crop contains no recognizable face.
	Embed(ctx context.Context, face *image.RGBA) (model.Embedding, error)

	// Close releases backend resources.
	Close() error
}
