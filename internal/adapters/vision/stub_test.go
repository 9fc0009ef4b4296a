package vision_test

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	vision "github.com/okian/presence/internal/adapters/vision"
	match "github.com/okian/presence/internal/domain/match"
	. "github.com/smartystreets/goconvey/convey"
)

func solidPatch(bounds, patch image.Rectangle, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(bounds)
	draw.Draw(img, patch, &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestStubDetect(t *testing.T) {
	Convey("Given a stub backend", t, func() {
		backend := vision.NewStubBackend()

		Convey("When a frame contains a colored patch", func() {
			patch := image.Rect(100, 80, 200, 180)
			img := solidPatch(image.Rect(0, 0, 640, 480), patch, color.RGBA{R: 200, A: 255})

			detections, err := backend.Detect(context.Background(), img)

			Convey("Then it detects exactly the patch", func() {
				So(err, ShouldBeNil)
				So(detections, ShouldHaveLength, 1)
				So(detections[0].Box, ShouldResemble, patch)
				So(detections[0].Confidence, ShouldEqual, 1.0)
			})
		})

		Convey("When a frame is entirely black", func() {
			img := image.NewRGBA(image.Rect(0, 0, 640, 480))

			detections, err := backend.Detect(context.Background(), img)

			Convey("Then it detects nothing", func() {
				So(err, ShouldBeNil)
				So(detections, ShouldBeEmpty)
			})
		})
	})
}

func TestStubEmbed(t *testing.T) {
	Convey("Given a stub backend", t, func() {
		backend := vision.NewStubBackend()
		red := color.RGBA{R: 220, A: 255}
		blue := color.RGBA{B: 220, A: 255}

		Convey("When two crops share the same color", func() {
			a, errA := backend.Embed(context.Background(), solidPatch(image.Rect(0, 0, 160, 160), image.Rect(0, 0, 160, 160), red))
			b, errB := backend.Embed(context.Background(), solidPatch(image.Rect(0, 0, 160, 160), image.Rect(0, 0, 160, 160), red))

			Convey("Then their embeddings are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldResemble, b)
				So(match.Cosine(a, b), ShouldAlmostEqual, 1.0, 1e-6)
			})
		})

		Convey("When two crops have different colors", func() {
			a, _ := backend.Embed(context.Background(), solidPatch(image.Rect(0, 0, 160, 160), image.Rect(0, 0, 160, 160), red))
			b, _ := backend.Embed(context.Background(), solidPatch(image.Rect(0, 0, 160, 160), image.Rect(0, 0, 160, 160), blue))

			Convey("Then their similarity is below the identity threshold", func() {
				So(match.Cosine(a, b), ShouldBeLessThan, match.DefaultThreshold)
			})
		})

		Convey("When the crop is entirely black", func() {
			_, err := backend.Embed(context.Background(), image.NewRGBA(image.Rect(0, 0, 160, 160)))

			Convey("Then it reports no face", func() {
				So(err, ShouldEqual, vision.ErrNoFace)
			})
		})
	})
}
