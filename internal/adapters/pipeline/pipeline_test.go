package pipeline_test

import (
	"bytes"
	"context"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	camera "github.com/okian/presence/internal/adapters/camera"
	pipeline "github.com/okian/presence/internal/adapters/pipeline"
	worker "github.com/okian/presence/internal/adapters/pipeline/worker"
	vision "github.com/okian/presence/internal/adapters/vision"
	model "github.com/okian/presence/internal/domain/model"
	overlay "github.com/okian/presence/internal/domain/overlay"
	logging "github.com/okian/presence/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockMarker struct {
	mu       sync.Mutex
	names    []string
	inactive bool
}

func (m *mockMarker) Mark(ctx context.Context, name string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	return true, nil
}

func (m *mockMarker) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.inactive
}

func (m *mockMarker) setActive(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inactive = !active
}

func (m *mockMarker) marked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func TestPipelineSession(t *testing.T) {
	convey.Convey("Given a pipeline over a synthetic camera and the stub backend", t, func() {
		_ = logging.Init()

		backend := vision.NewStubBackend()
		source := camera.NewSynthetic(color.RGBA{R: 220, A: 255})
		marker := &mockMarker{}
		timers := overlay.NewTimers()
		hub := pipeline.NewHub()
		matcher := worker.MatcherFunc(func(ctx context.Context, emb model.Embedding) string {
			return "alice"
		})

		p := pipeline.New(source, backend, backend, matcher, marker, timers, hub,
			pipeline.WithFrameInterval(time.Millisecond),
			pipeline.WithDisplayDuration(2*time.Second),
		)

		convey.Convey("When the session runs", func() {
			id, frames := hub.Subscribe()
			defer hub.Unsubscribe(id)

			ctx := context.Background()
			runErr := make(chan error, 1)
			go func() {
				runErr <- p.Run(ctx)
			}()

			convey.Convey("Then subscribers receive decodable JPEG frames", func() {
				select {
				case frame := <-frames:
					img, err := jpeg.Decode(bytes.NewReader(frame))
					convey.So(err, convey.ShouldBeNil)
					convey.So(img.Bounds().Dx(), convey.ShouldEqual, 640)
				case <-time.After(2 * time.Second):
					t.Fatal("no frame published")
				}

				convey.So(p.Stop(ctx), convey.ShouldBeNil)
				convey.So(<-runErr, convey.ShouldBeNil)
			})

			convey.Convey("Then the recognized name is marked and becomes visible", func() {
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					if len(marker.marked()) > 0 {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}

				convey.So(marker.marked(), convey.ShouldContain, "alice")
				convey.So(timers.Visible("alice", time.Now()), convey.ShouldBeTrue)

				convey.So(p.Stop(ctx), convey.ShouldBeNil)
				convey.So(<-runErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the session runs with the marker inactive", func() {
			marker.setActive(false)

			id, frames := hub.Subscribe()
			defer hub.Unsubscribe(id)

			ctx := context.Background()
			runErr := make(chan error, 1)
			go func() {
				runErr <- p.Run(ctx)
			}()

			convey.Convey("Then frames keep streaming but nothing is marked", func() {
				received := 0
				deadline := time.Now().Add(2 * time.Second)
				for received < 5 && time.Now().Before(deadline) {
					select {
					case <-frames:
						received++
					case <-time.After(200 * time.Millisecond):
					}
				}

				convey.So(received, convey.ShouldBeGreaterThanOrEqualTo, 5)
				convey.So(marker.marked(), convey.ShouldBeEmpty)
				convey.So(timers.Visible("alice", time.Now()), convey.ShouldBeFalse)

				convey.So(p.Stop(ctx), convey.ShouldBeNil)
				convey.So(<-runErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the camera fails", func() {
			convey.So(source.Close(), convey.ShouldBeNil)

			err := p.Run(context.Background())

			convey.Convey("Then Run returns the camera error and the session ends", func() {
				convey.So(err, convey.ShouldEqual, camera.ErrClosed)
				select {
				case <-p.Done():
				default:
					t.Fatal("session not done after camera failure")
				}
			})
		})

		convey.Convey("When Stop is called twice", func() {
			ctx := context.Background()
			go func() { _ = p.Run(ctx) }()

			convey.So(p.Stop(ctx), convey.ShouldBeNil)

			convey.Convey("Then the second call returns immediately", func() {
				convey.So(p.Stop(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestHub(t *testing.T) {
	convey.Convey("Given a stream hub", t, func() {
		hub := pipeline.NewHub()

		convey.Convey("When two clients subscribe", func() {
			idA, chA := hub.Subscribe()
			idB, chB := hub.Subscribe()

			convey.Convey("Then a published frame reaches both", func() {
				hub.Publish([]byte("frame-1"))
				convey.So(string(<-chA), convey.ShouldEqual, "frame-1")
				convey.So(string(<-chB), convey.ShouldEqual, "frame-1")
				convey.So(hub.Count(), convey.ShouldEqual, 2)
			})

			convey.Convey("Then unsubscribing closes the client channel", func() {
				hub.Unsubscribe(idA)
				_, open := <-chA
				convey.So(open, convey.ShouldBeFalse)
				convey.So(hub.Count(), convey.ShouldEqual, 1)
				hub.Unsubscribe(idB)
			})
		})

		convey.Convey("When a subscriber stops reading", func() {
			_, ch := hub.Subscribe()

			convey.Convey("Then publishing never blocks", func() {
				for i := 0; i < 20; i++ {
					hub.Publish([]byte("frame"))
				}
				convey.So(len(ch), convey.ShouldBeLessThanOrEqualTo, cap(ch))
			})
		})
	})
}
