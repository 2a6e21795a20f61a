package face

import (
	"fmt"
	"image"
	"math"

	"github.com/ayusman/posesketch/internal/landmark"
)

// BoxConfig tunes EstimateBox. The defaults were picked by eye so that an
// emoji covers the whole head.
type BoxConfig struct {
	WidthScale     float64 `yaml:"width_scale" json:"width_scale" validate:"gt=0"`
	HeightScale    float64 `yaml:"height_scale" json:"height_scale" validate:"gt=0"`
	XOffsetDivisor float64 `yaml:"x_offset_divisor" json:"x_offset_divisor" validate:"gt=0"`
	YOffsetDivisor float64 `yaml:"y_offset_divisor" json:"y_offset_divisor" validate:"gt=0"`
}

// DefaultBoxConfig returns the placement multipliers used by the face sketch.
func DefaultBoxConfig() BoxConfig {
	return BoxConfig{
		WidthScale:     3,
		HeightScale:    1.8,
		XOffsetDivisor: 3,
		YOffsetDivisor: 6,
	}
}

// Box is an approximate face rectangle in frame pixels. It is a placement
// heuristic, not a tight bounding box.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// EstimateBox places an overlay box from the eye, forehead and chin keypoints.
func EstimateBox(keypoints []landmark.Point, cfg BoxConfig) (Box, error) {
	if err := landmark.Require(keypoints, landmark.BoxIndices...); err != nil {
		return Box{}, fmt.Errorf("estimate box: %w", err)
	}

	leftEye := keypoints[landmark.LeftEye]
	forehead := keypoints[landmark.Forehead]

	width := landmark.Distance(leftEye, keypoints[landmark.RightEye]) * cfg.WidthScale
	height := landmark.Distance(forehead, keypoints[landmark.Chin]) * cfg.HeightScale

	return Box{
		X:      leftEye.X - width/cfg.XOffsetDivisor,
		Y:      forehead.Y - height/cfg.YOffsetDivisor,
		Width:  width,
		Height: height,
	}, nil
}

// Rect rounds the box to integer pixels.
func (b Box) Rect() image.Rectangle {
	x0 := int(math.Round(b.X))
	y0 := int(math.Round(b.Y))
	return image.Rect(x0, y0, x0+int(math.Round(b.Width)), y0+int(math.Round(b.Height)))
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Rect().Empty()
}
