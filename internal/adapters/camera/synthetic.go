package camera

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// Synthetic frame geometry.
const (
	syntheticWidth  = 640
	syntheticHeight = 480
	patchSize       = 120
	patchStep       = 4
)

// Synthetic is a Source that renders solid colored patches on a black
// background. Each color plays the role of one person's face, which the
// stub vision backend recognizes by mean color, so the whole pipeline can
// run without a camera or dlib models.
type Synthetic struct {
	mu     sync.Mutex
	colors []color.RGBA
	frame  uint64
	closed bool
}

// NewSynthetic creates a synthetic source cycling through the given colors.
// With no colors it produces black frames, which contain no faces.
func NewSynthetic(colors ...color.RGBA) *Synthetic {
	return &Synthetic{colors: colors}
}

// Read renders the next frame. The patch drifts horizontally so consecutive
// frames differ, and the color changes every frame.
func (s *Synthetic) Read(ctx context.Context) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, syntheticWidth, syntheticHeight))
	if len(s.colors) > 0 {
		c := s.colors[s.frame%uint64(len(s.colors))]
		x := int(s.frame*patchStep) % (syntheticWidth - patchSize)
		y := (syntheticHeight - patchSize) / 2
		patch := image.Rect(x, y, x+patchSize, y+patchSize)
		draw.Draw(img, patch, &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	s.frame++

	return img, nil
}

// Close stops the source.
func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
