// Package sketch contains the per-frame update of the face and hand sketches.
// Each sketch owns its toggles and tuning; detections are passed in on every
// frame and never retained.
package sketch

import (
	"github.com/ayusman/posesketch/internal/config"
	"github.com/ayusman/posesketch/internal/landmark"
	"github.com/ayusman/posesketch/internal/render"
)

// Sketch is driven by the render loop once per frame.
type Sketch interface {
	// Frame updates the sketch from the latest detections and draws onto c.
	Frame(c render.Canvas, dets []landmark.Detection)
	// SetTuning replaces the tuning used from the next frame on.
	SetTuning(t config.Tuning)
	// State returns the outputs of the most recent frame, for the HTTP API.
	State() any
	Close()
}

const keypointSize = 5
