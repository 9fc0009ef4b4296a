package camera

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/okian/presence/internal/domain/overlay"
)

// Webcam reads frames from a local capture device through OpenCV.
type Webcam struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	closed  bool
}

// OpenWebcam opens the capture device by index (0 is the default camera).
func OpenWebcam(device int) (*Webcam, error) {
	capture, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, fmt.Errorf("opening capture device %d: %w", device, err)
	}
	return &Webcam{
		capture: capture,
		frame:   gocv.NewMat(),
	}, nil
}

// Read grabs the next frame and converts it to RGBA.
func (w *Webcam) Read(ctx context.Context) (*image.RGBA, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ok := w.capture.Read(&w.frame); !ok || w.frame.Empty() {
		return nil, ErrReadFrame
	}

	img, err := w.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	return overlay.ToRGBA(img), nil
}

// Close releases the device and the reusable frame buffer.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.frame.Close(); err != nil {
		return fmt.Errorf("closing frame buffer: %w", err)
	}
	if err := w.capture.Close(); err != nil {
		return fmt.Errorf("closing capture device: %w", err)
	}
	return nil
}
