// Package model contains domain models passed between layers.
package model

import (
	"image"
	"time"
)

// Unknown is the canonical name for a face the matcher could not identify.
const Unknown = "unknown"

// Embedding is a fixed-length identity vector produced by the embedder.
// Immutable once produced.
type Embedding []float32

// Clone returns an independent copy of the embedding.
func (e Embedding) Clone() Embedding {
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// Detection is one face located by the detector in a frame.
type Detection struct {
	Box        image.Rectangle // face bounds in frame coordinates
	Confidence float64         // detector confidence in [0, 1]
}

// Face is one recognized (or unrecognized) face within a result.
type Face struct {
	Name       string // matched person or Unknown
	Box        image.Rectangle
	Confidence float64
}

// FrameJob is one captured frame submitted to the recognition worker.
type FrameJob struct {
	SessionID string // camera session this frame belongs to
	Seq       uint64 // capture order within the session
	Image     *image.RGBA
	Captured  time.Time
}

// Result is the recognition outcome for exactly one frame. A frame with no
// confident faces still produces a Result with an empty Faces slice.
type Result struct {
	SessionID string
	Seq       uint64
	Faces     []Face
}

// Record is one attendance ledger entry.
type Record struct {
	Name string
	Time time.Time
}
