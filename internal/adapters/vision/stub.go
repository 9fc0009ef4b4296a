package vision

import (
	"context"
	"image"
	"math"

	"github.com/okian/presence/internal/domain/model"
)

// stubDims matches the dlib descriptor length so embeddings from the stub
// and the real backend are interchangeable in storage.
const stubDims = 128

// StubBackend is a deterministic Backend for development and tests. It
// treats any non-black region of a frame as a single face and derives the
// embedding from the region's mean color, so two crops of the same color
// always produce the same identity.
type StubBackend struct{}

// NewStubBackend creates a stub backend.
func NewStubBackend() *StubBackend {
	return &StubBackend{}
}

// Detect returns the bounding box of the non-black pixels in the frame, or
// no detections when the frame is entirely black.
func (s *StubBackend) Detect(ctx context.Context, img *image.RGBA) ([]model.Detection, error) {
	bounds := img.Bounds()
	box := image.Rectangle{Min: bounds.Max, Max: bounds.Min}
	found := false

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r == 0 && g == 0 && b == 0 {
				continue
			}
			found = true
			if x < box.Min.X {
				box.Min.X = x
			}
			if y < box.Min.Y {
				box.Min.Y = y
			}
			if x+1 > box.Max.X {
				box.Max.X = x + 1
			}
			if y+1 > box.Max.Y {
				box.Max.Y = y + 1
			}
		}
	}

	if !found {
		return nil, nil
	}
	return []model.Detection{{Box: box, Confidence: 1.0}}, nil
}

// Embed derives a unit-length embedding from the crop's mean color.
func (s *StubBackend) Embed(ctx context.Context, face *image.RGBA) (model.Embedding, error) {
	bounds := face.Bounds()
	if bounds.Empty() {
		return nil, ErrNoFace
	}

	var sumR, sumG, sumB float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := face.At(x, y).RGBA()
			sumR += float64(r)
			sumG += float64(g)
			sumB += float64(b)
		}
	}

	if sumR == 0 && sumG == 0 && sumB == 0 {
		return nil, ErrNoFace
	}

	pixels := float64(bounds.Dx() * bounds.Dy())
	channels := [3]float64{sumR / pixels, sumG / pixels, sumB / pixels}

	emb := make(model.Embedding, stubDims)
	var norm float64
	for i := range emb {
		v := channels[i%len(channels)]
		emb[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range emb {
		emb[i] = float32(float64(emb[i]) / norm)
	}
	return emb, nil
}

// Close is a no-op for the stub.
func (s *StubBackend) Close() error {
	return nil
}
