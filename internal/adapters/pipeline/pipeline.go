// Package pipeline runs a capture session: frames flow from a camera source
// through a bounded queue to the recognition worker, and recognition results
// flow back to the capture loop, which renders them onto the live frame and
// publishes JPEG frames to stream subscribers.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/presence/internal/adapters/camera"
	"github.com/okian/presence/internal/adapters/pipeline/queue"
	"github.com/okian/presence/internal/adapters/pipeline/worker"
	"github.com/okian/presence/internal/domain/model"
	"github.com/okian/presence/internal/domain/overlay"
	"github.com/okian/presence/pkg/logger"
	"github.com/okian/presence/pkg/metrics"
)

// Default pipeline configuration constants.
const (
	defaultQueueCapacity = 2
	defaultMaxWidth      = 640
	defaultJPEGQuality   = 80
	defaultFrameInterval = 33 * time.Millisecond
)

// Queue names used for metric labels.
const (
	frameQueueName  = "frames"
	resultQueueName = "results"
)

// Marker records attendance for a recognized name. Active gates the render
// step: while false, known faces are still boxed and labeled but neither
// marked nor given display timers.
type Marker interface {
	Mark(ctx context.Context, name string, now time.Time) (bool, error)
	Active() bool
}

// Pipeline owns one capture session from camera to stream.
type Pipeline struct {
	source camera.Source
	marker Marker
	timers *overlay.Timers
	hub    *Hub

	// Configuration
	queueCapacity   int
	maxWidth        int
	jpegQuality     int
	frameInterval   time.Duration
	displayDuration time.Duration
	workerOpts      []worker.Option
	now             func() time.Time

	sessionID string
	frames    *queue.Queue[model.FrameJob]
	results   *queue.Queue[model.Result]
	worker    *worker.RecognitionWorker

	// Shutdown control
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// New creates a pipeline for one session. The recognition stages are given
// as the worker's Detector, Embedder, and Matcher contracts.
func New(source camera.Source, detector worker.Detector, embedder worker.Embedder, matcher worker.Matcher, marker Marker, timers *overlay.Timers, hub *Hub, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:          source,
		marker:          marker,
		timers:          timers,
		hub:             hub,
		queueCapacity:   defaultQueueCapacity,
		maxWidth:        defaultMaxWidth,
		jpegQuality:     defaultJPEGQuality,
		frameInterval:   defaultFrameInterval,
		displayDuration: overlay.DefaultDisplayDuration,
		now:             time.Now,
		sessionID:       uuid.NewString(),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.Get().Named("pipeline")
	}

	p.frames = queue.New[model.FrameJob](
		queue.WithName(frameQueueName),
		queue.WithCapacity(p.queueCapacity),
	)
	p.results = queue.New[model.Result](
		queue.WithName(resultQueueName),
		queue.WithCapacity(p.queueCapacity),
	)
	p.worker = worker.New(p.frames, p.results, detector, embedder, matcher, p.workerOpts...)

	return p
}

// ID returns the session identifier.
func (p *Pipeline) ID() string {
	return p.sessionID
}

// Done reports session termination; it is closed when Run returns.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Run executes the capture loop until Stop is called, ctx is canceled, or
// the camera fails. It returns the camera error on failure, nil otherwise.
// On exit the frame queue is closed and the worker has drained it.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.done)

	go p.worker.Run(ctx)

	err := p.captureLoop(ctx)

	// The worker drains frames queued before the close, then stops.
	if cerr := p.frames.Close(); cerr != nil && !errors.Is(cerr, queue.ErrClosed) {
		p.logger.Warn(ctx, "closing frame queue", logger.Error(cerr))
	}
	select {
	case <-p.worker.Done():
	case <-ctx.Done():
	}

	return err
}

// Stop requests a graceful shutdown and waits for Run to return.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.stop)
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping session %s: %w", p.sessionID, ctx.Err())
	}
}

func (p *Pipeline) captureLoop(ctx context.Context) error {
	var seq uint64

	ticker := time.NewTicker(p.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stop:
			return nil
		case <-ticker.C:
		}

		frame, err := p.source.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			metrics.RecordErrorByComponent("pipeline", "camera_read")
			p.logger.Error(ctx, "camera read failed, stopping session",
				logger.String("session", p.sessionID),
				logger.Error(err),
			)
			return err
		}
		metrics.RecordFrameCaptured()

		img := overlay.Downscale(frame, p.maxWidth)
		job := model.FrameJob{
			SessionID: p.sessionID,
			Seq:       seq,
			Image:     overlay.CloneRGBA(img),
			Captured:  p.now(),
		}
		seq++

		if !p.frames.Enqueue(ctx, job) {
			metrics.RecordFrameDropped()
		}

		p.render(ctx, img)
	}
}

// render pops at most one result and draws it onto the frame being
// published. Frames arriving between results go out without boxes rather
// than reapplying stale annotations.
func (p *Pipeline) render(ctx context.Context, img *image.RGBA) {
	if res, ok := p.results.TryDequeue(); ok {
		now := p.now()
		attendance := p.marker.Active()
		for _, face := range res.Faces {
			if face.Name == model.Unknown || !attendance {
				continue
			}
			p.timers.Refresh(face.Name, now.Add(p.displayDuration))
			if _, err := p.marker.Mark(ctx, face.Name, now); err != nil {
				p.logger.Error(ctx, "marking attendance",
					logger.String("name", face.Name),
					logger.Error(err),
				)
			}
		}
		overlay.Annotate(img, res.Faces)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.jpegQuality}); err != nil {
		metrics.RecordErrorByComponent("pipeline", "jpeg_encode")
		p.logger.Error(ctx, "encoding frame", logger.Error(err))
		return
	}
	p.hub.Publish(buf.Bytes())
	metrics.RecordFrameRendered()
}
