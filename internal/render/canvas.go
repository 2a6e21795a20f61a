// Package render holds the drawing and audio boundaries the sketches drive.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Canvas is the set of draw operations the sketches need.
type Canvas interface {
	// DrawImage blits img into rect, scaling it to fit.
	DrawImage(img *Image, rect image.Rectangle)
	Ellipse(center image.Point, w, h int, c color.RGBA)
	Circle(center image.Point, diameter int, c color.RGBA)
	Bounds() image.Rectangle
}

// Colours used by the sketches.
var (
	Green = color.RGBA{G: 255, A: 255}
	Black = color.RGBA{A: 255}
)

// MatCanvas draws onto a BGR frame in place.
type MatCanvas struct {
	mat *gocv.Mat
}

// NewMatCanvas wraps frame. The canvas does not own the frame.
func NewMatCanvas(frame *gocv.Mat) *MatCanvas {
	return &MatCanvas{mat: frame}
}

func (c *MatCanvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.mat.Cols(), c.mat.Rows())
}

// Ellipse draws a filled ellipse w by h pixels.
func (c *MatCanvas) Ellipse(center image.Point, w, h int, col color.RGBA) {
	axes := image.Pt(max(w/2, 1), max(h/2, 1))
	gocv.Ellipse(c.mat, center, axes, 0, 0, 360, col, -1)
}

// Circle draws a filled circle.
func (c *MatCanvas) Circle(center image.Point, diameter int, col color.RGBA) {
	gocv.Circle(c.mat, center, max(diameter/2, 1), col, -1)
}

// DrawImage copies the opaque pixels of img, scaled to rect, onto the frame.
// The part of rect outside the frame is dropped.
func (c *MatCanvas) DrawImage(img *Image, rect image.Rectangle) {
	if img == nil || rect.Empty() {
		return
	}
	visible := rect.Intersect(c.Bounds())
	if visible.Empty() {
		return
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(img.bgr, &scaled, rect.Size(), 0, 0, gocv.InterpolationLinear)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Resize(img.alpha, &mask, rect.Size(), 0, 0, gocv.InterpolationNearestNeighbor)

	// crop the scaled image to the visible part, in image coordinates
	src := visible.Sub(rect.Min)
	srcRegion := scaled.Region(src)
	defer srcRegion.Close()
	maskRegion := mask.Region(src)
	defer maskRegion.Close()

	dst := c.mat.Region(visible)
	defer dst.Close()

	srcRegion.CopyToWithMask(&dst, maskRegion)
}
