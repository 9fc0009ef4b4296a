package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	goface "github.com/Kagami/go-face"

	"github.com/okian/presence/internal/domain/model"
)

// dlib reports no confidence for its HOG detector; detections that survive
// its internal thresholds are treated as certain.
const dlibConfidence = 1.0

// DlibBackend implements Backend on top of dlib via go-face.
//
// The models directory must contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat, and mmod_human_face_detector.dat.
type DlibBackend struct {
	mu     sync.RWMutex
	rec    *goface.Recognizer
	closed bool
}

// NewDlibBackend loads the dlib models from modelsDir.
func NewDlibBackend(modelsDir string) (*DlibBackend, error) {
	rec, err := goface.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading dlib models from %s: %w", modelsDir, err)
	}
	return &DlibBackend{rec: rec}, nil
}

// Detect locates faces in a full frame.
func (b *DlibBackend) Detect(ctx context.Context, img *image.RGBA) ([]model.Detection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	data, err := encodeJPEG(img)
	if err != nil {
		return nil, err
	}

	faces, err := b.rec.Recognize(data)
	if err != nil {
		return nil, fmt.Errorf("dlib recognize: %w", err)
	}

	detections := make([]model.Detection, len(faces))
	for i, f := range faces {
		detections[i] = model.Detection{
			Box:        f.Rectangle,
			Confidence: dlibConfidence,
		}
	}
	return detections, nil
}

// Embed computes the 128-dimensional dlib descriptor for a face crop.
func (b *DlibBackend) Embed(ctx context.Context, face *image.RGBA) (model.Embedding, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	data, err := encodeJPEG(face)
	if err != nil {
		return nil, err
	}

	f, err := b.rec.RecognizeSingle(data)
	if err != nil {
		return nil, fmt.Errorf("dlib recognize single: %w", err)
	}
	if f == nil {
		return nil, ErrNoFace
	}

	emb := make(model.Embedding, len(f.Descriptor))
	for i, v := range f.Descriptor {
		emb[i] = v
	}
	return emb, nil
}

// Close releases the dlib recognizer.
func (b *DlibBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.rec.Close()
	b.closed = true
	return nil
}

func encodeJPEG(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return buf.Bytes(), nil
}
