// Package face turns face mesh keypoints into a mouth state and an approximate
// overlay box.
package face

import (
	"fmt"

	"github.com/ayusman/posesketch/internal/landmark"
)

// MouthState is the discrete mouth classification.
type MouthState string

const (
	Neutral MouthState = "neutral"
	Smiling MouthState = "smiling"
	Open    MouthState = "open"
)

// ReferenceHeight is the frame height the default thresholds were tuned at.
const ReferenceHeight = 480

// Thresholds holds the pixel thresholds used by Classify. They are only valid
// for the resolution they were tuned at; use Scaled for other resolutions.
type Thresholds struct {
	// OpenHeight is the lip gap above which the mouth counts as open.
	OpenHeight float64 `yaml:"open_height" json:"open_height" validate:"gt=0"`
	// SmileRatio is the width/height ratio above which a closed mouth counts as smiling.
	SmileRatio float64 `yaml:"smile_ratio" json:"smile_ratio" validate:"gt=0"`
}

// DefaultThresholds returns the thresholds tuned for a 640x480 capture.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OpenHeight: 15,
		SmileRatio: 10,
	}
}

// Scaled rescales the pixel threshold from refHeight to frameHeight. The ratio
// threshold is dimensionless and kept as is.
func (t Thresholds) Scaled(refHeight, frameHeight int) Thresholds {
	if refHeight <= 0 || frameHeight <= 0 || refHeight == frameHeight {
		return t
	}
	return Thresholds{
		OpenHeight: t.OpenHeight * float64(frameHeight) / float64(refHeight),
		SmileRatio: t.SmileRatio,
	}
}

// MouthFeatures are the mouth measurements of one face.
type MouthFeatures struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// Ratio is Width/Height, or 0 when Height is 0.
	Ratio float64 `json:"ratio"`
}

// Degenerate reports whether the lip gap is zero, in which case Ratio carries
// no information.
func (m MouthFeatures) Degenerate() bool {
	return m.Height == 0
}

// ExtractMouth measures the mouth of a face mesh detection.
func ExtractMouth(keypoints []landmark.Point) (MouthFeatures, error) {
	if err := landmark.Require(keypoints, landmark.MouthIndices...); err != nil {
		return MouthFeatures{}, fmt.Errorf("extract mouth: %w", err)
	}

	width, _ := landmark.DistanceAt(keypoints, landmark.MouthLeft, landmark.MouthRight)
	height, _ := landmark.DistanceAt(keypoints, landmark.UpperLip, landmark.LowerLip)

	m := MouthFeatures{Width: width, Height: height}
	if height > 0 {
		m.Ratio = width / height
	}
	return m, nil
}

// Classify maps mouth features to a state. The height rule takes precedence
// over the ratio rule.
func Classify(m MouthFeatures, t Thresholds) MouthState {
	switch {
	case m.Height > t.OpenHeight:
		return Open
	case !m.Degenerate() && m.Ratio > t.SmileRatio:
		return Smiling
	default:
		return Neutral
	}
}

// MouthStateOf extracts and classifies in one step.
func MouthStateOf(keypoints []landmark.Point, t Thresholds) (MouthState, error) {
	m, err := ExtractMouth(keypoints)
	if err != nil {
		return Neutral, err
	}
	return Classify(m, t), nil
}
