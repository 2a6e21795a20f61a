// Package detector provides the landmark provider contract and its
// implementations for face mesh and hand landmark detection.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/posesketch/internal/landmark"
)

// Mode selects which landmark model a provider runs.
type Mode string

const (
	ModeFace Mode = "face"
	ModeHand Mode = "hand"
)

// Detector is a landmark provider.
type Detector interface {
	// Detect analyzes a video frame and returns one detection per subject, with
	// keypoints in frame pixels. Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]landmark.Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds the provider options. They must be set before detection starts.
type Config struct {
	Mode Mode

	// MaxSubjects is the maximum number of faces or hands to detect.
	MaxSubjects int

	// RefineLandmarks adds iris keypoints to face meshes; more precise, slower.
	RefineLandmarks bool

	// Flipped mirrors keypoints horizontally, for a mirrored preview.
	Flipped bool

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
}

// DefaultConfig returns the provider options the sketches use.
func DefaultConfig(mode Mode) Config {
	cfg := Config{
		Mode:          mode,
		MaxSubjects:   1,
		MinConfidence: 0.5,
	}
	if mode == ModeHand {
		cfg.MaxSubjects = 2
	}
	return cfg
}

// expectedKeypoints returns the topology size for the mode.
func (c Config) expectedKeypoints() int {
	switch {
	case c.Mode == ModeHand:
		return landmark.NumHandLandmarks
	case c.RefineLandmarks:
		return landmark.NumRefinedFaceLandmarks
	default:
		return landmark.NumFaceLandmarks
	}
}
