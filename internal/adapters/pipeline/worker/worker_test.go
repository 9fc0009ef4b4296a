package worker_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/presence/internal/adapters/pipeline/queue"
	worker "github.com/okian/presence/internal/adapters/pipeline/worker"
	model "github.com/okian/presence/internal/domain/model"
	logging "github.com/okian/presence/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockFrames struct {
	frameChan chan model.FrameJob
}

func newMockFrames() *mockFrames {
	return &mockFrames{
		frameChan: make(chan model.FrameJob, 10),
	}
}

func (mf *mockFrames) Dequeue() <-chan model.FrameJob {
	return mf.frameChan
}

func (mf *mockFrames) addFrame(job model.FrameJob) {
	mf.frameChan <- job
}

type mockResults struct {
	mu      sync.Mutex
	results []model.Result
	full    bool
	closed  bool
}

func (mr *mockResults) Enqueue(ctx context.Context, res model.Result) bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if mr.full {
		return false
	}
	mr.results = append(mr.results, res)
	return true
}

func (mr *mockResults) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.closed = true
	return nil
}

func (mr *mockResults) isClosed() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.closed
}

func (mr *mockResults) waitFor(n int, timeout time.Duration) []model.Result {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		mr.mu.Lock()
		if len(mr.results) >= n {
			out := make([]model.Result, len(mr.results))
			copy(out, mr.results)
			mr.mu.Unlock()
			return out
		}
		mr.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	out := make([]model.Result, len(mr.results))
	copy(out, mr.results)
	return out
}

type mockDetector struct {
	detections []model.Detection
	err        error
}

func (md *mockDetector) Detect(ctx context.Context, img *image.RGBA) ([]model.Detection, error) {
	return md.detections, md.err
}

type mockEmbedder struct {
	embedding model.Embedding
	err       error
}

func (me *mockEmbedder) Embed(ctx context.Context, face *image.RGBA) (model.Embedding, error) {
	return me.embedding, me.err
}

func testFrame(seq uint64) model.FrameJob {
	return model.FrameJob{
		SessionID: "session-1",
		Seq:       seq,
		Image:     image.NewRGBA(image.Rect(0, 0, 640, 480)),
		Captured:  time.Now(),
	}
}

func TestRecognitionWorker(t *testing.T) {
	convey.Convey("Given a recognition worker", t, func() {
		_ = logging.Init()

		frames := newMockFrames()
		results := &mockResults{}
		embedder := &mockEmbedder{embedding: model.Embedding{1, 0, 0}}
		matcher := worker.MatcherFunc(func(ctx context.Context, emb model.Embedding) string {
			return "alice"
		})

		convey.Convey("When a frame with one confident face is processed", func() {
			detector := &mockDetector{detections: []model.Detection{
				{Box: image.Rect(10, 10, 110, 110), Confidence: 0.95},
			}}
			w := worker.New(frames, results, detector, embedder, matcher)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			frames.addFrame(testFrame(1))
			got := results.waitFor(1, time.Second)

			convey.Convey("Then it publishes one result with the matched name", func() {
				convey.So(got, convey.ShouldHaveLength, 1)
				convey.So(got[0].SessionID, convey.ShouldEqual, "session-1")
				convey.So(got[0].Seq, convey.ShouldEqual, 1)
				convey.So(got[0].Faces, convey.ShouldHaveLength, 1)
				convey.So(got[0].Faces[0].Name, convey.ShouldEqual, "alice")
				convey.So(got[0].Faces[0].Box, convey.ShouldResemble, image.Rect(10, 10, 110, 110))
			})
		})

		convey.Convey("When detection fails", func() {
			detector := &mockDetector{err: errors.New("detector unavailable")}
			w := worker.New(frames, results, detector, embedder, matcher)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			frames.addFrame(testFrame(2))
			got := results.waitFor(1, time.Second)

			convey.Convey("Then an empty result is still published for the frame", func() {
				convey.So(got, convey.ShouldHaveLength, 1)
				convey.So(got[0].Seq, convey.ShouldEqual, 2)
				convey.So(got[0].Faces, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When a detection is below the confidence floor", func() {
			detector := &mockDetector{detections: []model.Detection{
				{Box: image.Rect(10, 10, 110, 110), Confidence: 0.5},
			}}
			w := worker.New(frames, results, detector, embedder, matcher)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			frames.addFrame(testFrame(3))
			got := results.waitFor(1, time.Second)

			convey.Convey("Then the face is filtered out of the result", func() {
				convey.So(got, convey.ShouldHaveLength, 1)
				convey.So(got[0].Faces, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When embedding fails", func() {
			detector := &mockDetector{detections: []model.Detection{
				{Box: image.Rect(10, 10, 110, 110), Confidence: 0.95},
			}}
			failing := &mockEmbedder{err: errors.New("embedder crashed")}
			w := worker.New(frames, results, detector, failing, matcher)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			frames.addFrame(testFrame(4))
			got := results.waitFor(1, time.Second)

			convey.Convey("Then the face is reported as unknown with its box intact", func() {
				convey.So(got, convey.ShouldHaveLength, 1)
				convey.So(got[0].Faces, convey.ShouldHaveLength, 1)
				convey.So(got[0].Faces[0].Name, convey.ShouldEqual, model.Unknown)
				convey.So(got[0].Faces[0].Box, convey.ShouldResemble, image.Rect(10, 10, 110, 110))
			})
		})

		convey.Convey("When a detection box extends past the frame", func() {
			detector := &mockDetector{detections: []model.Detection{
				{Box: image.Rect(600, 440, 700, 540), Confidence: 0.95},
			}}
			w := worker.New(frames, results, detector, embedder, matcher)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			frames.addFrame(testFrame(5))
			got := results.waitFor(1, time.Second)

			convey.Convey("Then the face box is clamped to frame bounds", func() {
				convey.So(got, convey.ShouldHaveLength, 1)
				convey.So(got[0].Faces, convey.ShouldHaveLength, 1)
				convey.So(got[0].Faces[0].Box, convey.ShouldResemble, image.Rect(600, 440, 640, 480))
			})
		})

		convey.Convey("When the frame source closes with frames still queued", func() {
			detector := &mockDetector{detections: []model.Detection{
				{Box: image.Rect(10, 10, 110, 110), Confidence: 0.95},
			}}
			q := queue.New[model.FrameJob](queue.WithCapacity(2), queue.WithName("drain-frames"))
			w := worker.New(q, results, detector, embedder, matcher)

			ctx := context.Background()
			convey.So(q.Enqueue(ctx, testFrame(10)), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, testFrame(11)), convey.ShouldBeTrue)
			convey.So(q.Close(), convey.ShouldBeNil)

			go w.Run(ctx)

			convey.Convey("Then both queued frames are processed before termination", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not stop after draining the closed queue")
				}

				got := results.waitFor(2, time.Second)
				convey.So(got, convey.ShouldHaveLength, 2)
				convey.So(got[0].Seq, convey.ShouldEqual, 10)
				convey.So(got[1].Seq, convey.ShouldEqual, 11)
				convey.So(results.isClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the frame source closes", func() {
			detector := &mockDetector{}
			w := worker.New(frames, results, detector, embedder, matcher)

			go w.Run(context.Background())
			close(frames.frameChan)

			convey.Convey("Then the worker stops and closes the result sink", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not stop after frame source closed")
				}
				convey.So(results.isClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			detector := &mockDetector{}
			w := worker.New(frames, results, detector, embedder, matcher, worker.WithName("recognition-0"))

			go w.Run(context.Background())

			convey.Convey("Then Shutdown returns cleanly", func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}
