package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/okian/presence/internal/domain/model"
)

// Annotation colors and geometry.
var (
	knownColor   = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	unknownColor = color.RGBA{R: 220, G: 0, B: 0, A: 255}
	labelText    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	boxThickness = 2
	labelPadding = 4
)

// Annotate draws a bounding box and a "name (confidence)" label for every
// face onto img in place. Known identities are green, unknown ones red.
func Annotate(img *image.RGBA, faces []model.Face) {
	for _, f := range faces {
		c := knownColor
		if f.Name == model.Unknown {
			c = unknownColor
		}

		box := f.Box.Intersect(img.Bounds())
		if box.Empty() {
			continue
		}

		drawRect(img, box, c, boxThickness)
		drawLabel(img, fmt.Sprintf("%s (%.2f)", f.Name, f.Confidence), box.Min, c)
	}
}

// drawRect strokes the rectangle border with the given thickness.
func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	src := image.NewUniform(c)
	bounds := img.Bounds()

	top := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness).Intersect(bounds)
	bottom := image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y).Intersect(bounds)
	left := image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y).Intersect(bounds)
	right := image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y).Intersect(bounds)

	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(img, edge, src, image.Point{}, draw.Src)
	}
}

// drawLabel paints a filled background strip above anchor and renders the
// text on it, mirroring the box color for continuity with the border.
func drawLabel(img *image.RGBA, text string, anchor image.Point, bg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()

	strip := image.Rect(
		anchor.X,
		anchor.Y-height-labelPadding,
		anchor.X+width+2*labelPadding,
		anchor.Y,
	).Intersect(img.Bounds())
	if strip.Empty() {
		return
	}
	draw.Draw(img, strip, image.NewUniform(bg), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelText),
		Face: face,
		Dot: fixed.P(
			anchor.X+labelPadding,
			anchor.Y-labelPadding,
		),
	}
	d.DrawString(text)
}

// Downscale shrinks src to at most maxWidth pixels wide, preserving aspect
// ratio. Frames at or under the limit are returned unchanged.
func Downscale(src *image.RGBA, maxWidth int) *image.RGBA {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return src
	}

	ratio := float64(b.Dy()) / float64(b.Dx())
	h := int(float64(maxWidth) * ratio)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// CropResize extracts box from src and scales it to w×h, the embedder's
// required input size. The box is clamped to the source bounds first.
func CropResize(src image.Image, box image.Rectangle, w, h int) (*image.RGBA, error) {
	box = box.Intersect(src.Bounds())
	if box.Empty() {
		return nil, ErrEmptyRegion
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, box, xdraw.Src, nil)
	return dst, nil
}

// ToRGBA converts any image to RGBA, copying pixels only when necessary.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// CloneRGBA returns an independent pixel copy of img.
func CloneRGBA(img *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	copy(dst.Pix, img.Pix)
	return dst
}
