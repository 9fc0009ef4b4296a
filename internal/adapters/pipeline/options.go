package pipeline

import (
	"time"

	"github.com/okian/presence/internal/adapters/pipeline/worker"
	"github.com/okian/presence/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithQueueCapacity sets the capacity of the frame and result queues.
func WithQueueCapacity(capacity int) Option {
	return func(p *Pipeline) {
		if capacity > 0 {
			p.queueCapacity = capacity
		}
	}
}

// WithMaxWidth sets the width frames are downscaled to before processing.
func WithMaxWidth(width int) Option {
	return func(p *Pipeline) {
		if width > 0 {
			p.maxWidth = width
		}
	}
}

// WithJPEGQuality sets the encoding quality of published frames.
func WithJPEGQuality(quality int) Option {
	return func(p *Pipeline) {
		if quality > 0 && quality <= 100 {
			p.jpegQuality = quality
		}
	}
}

// WithFrameInterval sets the pacing between camera reads.
func WithFrameInterval(interval time.Duration) Option {
	return func(p *Pipeline) {
		if interval > 0 {
			p.frameInterval = interval
		}
	}
}

// WithDisplayDuration sets how long a recognized name stays visible after
// its last sighting.
func WithDisplayDuration(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.displayDuration = d
		}
	}
}

// WithWorkerOptions forwards options to the recognition worker.
func WithWorkerOptions(opts ...worker.Option) Option {
	return func(p *Pipeline) {
		p.workerOpts = append(p.workerOpts, opts...)
	}
}

// WithClock sets the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}
