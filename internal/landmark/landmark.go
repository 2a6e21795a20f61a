// Package landmark provides the point and detection types shared by the face and
// hand pipelines, together with the fixed landmark topologies they index into.
package landmark

import (
	"errors"
	"fmt"
	"math"
)

// ErrIndexOutOfRange is returned when a detection has fewer keypoints than a
// topology index requires.
var ErrIndexOutOfRange = errors.New("landmark index out of range")

// Point is a single keypoint. X and Y are pixels at the source frame
// resolution; Z is model-relative depth and may be zero.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Detection is the full keypoint set of one subject in one frame. Keypoint
// identity is positional.
type Detection struct {
	Keypoints []Point `json:"keypoints"`
	Label     string  `json:"label,omitempty"` // handedness for hands
	Score     float64 `json:"score"`
}

// Distance returns the 2D Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// At returns the keypoint at idx, or ErrIndexOutOfRange.
func At(keypoints []Point, idx int) (Point, error) {
	if idx < 0 || idx >= len(keypoints) {
		return Point{}, fmt.Errorf("%w: index %d, have %d keypoints", ErrIndexOutOfRange, idx, len(keypoints))
	}
	return keypoints[idx], nil
}

// Require checks that keypoints cover every index in idx.
func Require(keypoints []Point, idx ...int) error {
	for _, i := range idx {
		if _, err := At(keypoints, i); err != nil {
			return err
		}
	}
	return nil
}

// DistanceAt returns the distance between the keypoints at indices i and j.
func DistanceAt(keypoints []Point, i, j int) (float64, error) {
	a, err := At(keypoints, i)
	if err != nil {
		return 0, err
	}
	b, err := At(keypoints, j)
	if err != nil {
		return 0, err
	}
	return Distance(a, b), nil
}

// Mirror flips every keypoint horizontally inside a frame of the given width.
func (d Detection) Mirror(width float64) Detection {
	out := Detection{
		Keypoints: make([]Point, len(d.Keypoints)),
		Label:     d.Label,
		Score:     d.Score,
	}
	for i, p := range d.Keypoints {
		out.Keypoints[i] = Point{X: width - p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

// Scale converts normalized [0,1] coordinates into pixel coordinates.
func (d Detection) Scale(width, height float64) Detection {
	out := Detection{
		Keypoints: make([]Point, len(d.Keypoints)),
		Label:     d.Label,
		Score:     d.Score,
	}
	for i, p := range d.Keypoints {
		out.Keypoints[i] = Point{X: p.X * width, Y: p.Y * height, Z: p.Z * width}
	}
	return out
}
