// Package worker runs the recognition stage of the pipeline: it consumes
// captured frames, detects and identifies the faces in them, and publishes
// one result per frame.
package worker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/okian/presence/internal/domain/model"
	"github.com/okian/presence/internal/domain/overlay"
	"github.com/okian/presence/pkg/logger"
	"github.com/okian/presence/pkg/metrics"
)

// Default worker configuration constants.
const (
	// defaultConfidenceFloor is the minimum detector confidence for a face
	// to be considered at all.
	defaultConfidenceFloor = 0.9
	// defaultFaceSize is the square side length, in pixels, the embedder
	// expects face crops in.
	defaultFaceSize = 160
)

// Detector locates faces in a frame.
type Detector interface {
	Detect(ctx context.Context, img *image.RGBA) ([]model.Detection, error)
}

// Embedder computes an embedding for a face crop.
type Embedder interface {
	Embed(ctx context.Context, face *image.RGBA) (model.Embedding, error)
}

// Matcher resolves an embedding to a person's name, or model.Unknown.
type Matcher interface {
	Match(ctx context.Context, emb model.Embedding) string
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(ctx context.Context, emb model.Embedding) string

// Match calls f.
func (f MatcherFunc) Match(ctx context.Context, emb model.Embedding) string {
	return f(ctx, emb)
}

// FrameSource defines how the worker receives frames.
type FrameSource interface {
	Dequeue() <-chan model.FrameJob
}

// ResultSink defines where the worker publishes results.
type ResultSink interface {
	Enqueue(ctx context.Context, res model.Result) bool
	Close() error
}

// Worker processes frames into recognition results.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the frame
	// source closes.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// RecognitionWorker implements Worker for face recognition.
type RecognitionWorker struct {
	frames   FrameSource
	results  ResultSink
	detector Detector
	embedder Embedder
	matcher  Matcher
	name     string

	// Configuration
	confidenceFloor float64
	faceSize        int

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// New creates a recognition worker with configuration options.
func New(frames FrameSource, results ResultSink, detector Detector, embedder Embedder, matcher Matcher, opts ...Option) *RecognitionWorker {
	w := &RecognitionWorker{
		frames:          frames,
		results:         results,
		detector:        detector,
		embedder:        embedder,
		matcher:         matcher,
		name:            "recognition",
		confidenceFloor: defaultConfidenceFloor,
		faceSize:        defaultFaceSize,
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Done reports worker termination; it is closed when Run returns.
func (w *RecognitionWorker) Done() <-chan struct{} {
	return w.done
}

// Run starts the worker loop. When the frame source closes, the worker
// drains it, closes the result sink, and returns.
func (w *RecognitionWorker) Run(ctx context.Context) {
	defer func() {
		if err := w.results.Close(); err != nil {
			w.logger.Warn(ctx, "closing result sink", logger.Error(err))
		}
		close(w.done)
	}()

	frameChan := w.frames.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-frameChan:
			if !ok {
				// Frame source closed, worker should stop
				return
			}

			w.processFrame(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *RecognitionWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processFrame turns one captured frame into exactly one result, even when
// detection or embedding fails.
func (w *RecognitionWorker) processFrame(ctx context.Context, job model.FrameJob) {
	start := time.Now()
	defer func() {
		metrics.RecordFrameProcessTime(float64(time.Since(start).Milliseconds()))
	}()

	res := model.Result{
		SessionID: job.SessionID,
		Seq:       job.Seq,
	}

	detectStart := time.Now()
	detections, err := w.detector.Detect(ctx, job.Image)
	metrics.RecordDetectLatency(float64(time.Since(detectStart).Milliseconds()))
	if err != nil {
		metrics.RecordDetectError()
		metrics.RecordErrorByComponent("worker", "detect")
		w.logger.Error(ctx, "detection failed",
			logger.Uint64("seq", job.Seq),
			logger.Error(err),
		)
		// An empty result keeps the renderer's view of this frame current.
		w.publish(ctx, res)
		return
	}

	metrics.RecordFacesDetected(len(detections))

	for _, det := range detections {
		if det.Confidence < w.confidenceFloor {
			metrics.RecordFaceBelowFloor()
			continue
		}

		face, ok := w.recognize(ctx, job, det)
		if !ok {
			continue
		}
		res.Faces = append(res.Faces, face)
	}

	w.publish(ctx, res)
}

// recognize crops, embeds, and matches a single detection. It returns false
// only when the detection box has no overlap with the frame.
func (w *RecognitionWorker) recognize(ctx context.Context, job model.FrameJob, det model.Detection) (model.Face, bool) {
	box := det.Box.Intersect(job.Image.Bounds())

	crop, err := overlay.CropResize(job.Image, det.Box, w.faceSize, w.faceSize)
	if err != nil {
		if !errors.Is(err, overlay.ErrEmptyRegion) {
			w.logger.Warn(ctx, "cropping face",
				logger.Uint64("seq", job.Seq),
				logger.Error(err),
			)
		}
		return model.Face{}, false
	}

	face := model.Face{
		Name:       model.Unknown,
		Box:        box,
		Confidence: det.Confidence,
	}

	embedStart := time.Now()
	emb, err := w.embedder.Embed(ctx, crop)
	metrics.RecordEmbedLatency(float64(time.Since(embedStart).Milliseconds()))
	if err != nil {
		// A face we cannot embed is still a face; report it as unknown.
		metrics.RecordEmbedError()
		metrics.RecordErrorByComponent("worker", "embed")
		metrics.RecordRecognition("unknown")
		w.logger.Warn(ctx, "embedding failed",
			logger.Uint64("seq", job.Seq),
			logger.Error(err),
		)
		return face, true
	}

	matchStart := time.Now()
	face.Name = w.matcher.Match(ctx, emb)
	metrics.RecordMatchLatency(float64(time.Since(matchStart).Milliseconds()))

	if face.Name == model.Unknown {
		metrics.RecordRecognition("unknown")
	} else {
		metrics.RecordRecognition("known")
	}

	return face, true
}

// publish pushes a result to the sink, counting drops.
func (w *RecognitionWorker) publish(ctx context.Context, res model.Result) {
	if !w.results.Enqueue(ctx, res) {
		metrics.RecordResultDropped()
		w.logger.Debug(ctx, "result dropped",
			logger.Uint64("seq", res.Seq),
		)
	}
}
