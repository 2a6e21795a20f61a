package sketch

import (
	"errors"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/posesketch/internal/config"
	"github.com/ayusman/posesketch/internal/event"
	"github.com/ayusman/posesketch/internal/face"
	"github.com/ayusman/posesketch/internal/landmark"
	"github.com/ayusman/posesketch/internal/latest"
	"github.com/ayusman/posesketch/internal/render"
)

// FaceResult is the outcome for one face in one frame.
type FaceResult struct {
	Mouth face.MouthFeatures `json:"mouth"`
	State face.MouthState    `json:"state"`
	Box   face.Box           `json:"box"`
}

// FaceState is what the face sketch reports after each frame.
type FaceState struct {
	Faces         []FaceResult `json:"faces"`
	ShowKeypoints bool         `json:"show_keypoints"`
}

// FaceOptions configures a Face sketch.
type FaceOptions struct {
	Tuning        config.Tuning
	ShowKeypoints bool
	// Emoji per mouth state; states without an image draw nothing.
	Emoji map[face.MouthState]*render.Image
}

// Face overlays an emoji on every face according to its mouth state.
type Face struct {
	mu            sync.RWMutex
	thresholds    face.Thresholds
	box           face.BoxConfig
	showKeypoints bool
	emoji         map[face.MouthState]*render.Image

	state latest.Cell[FaceState]
	log   *logrus.Entry
}

// NewFace returns a face sketch. It takes ownership of the emoji images.
func NewFace(opts FaceOptions) *Face {
	f := &Face{
		thresholds:    opts.Tuning.Thresholds,
		box:           opts.Tuning.Box,
		showKeypoints: opts.ShowKeypoints,
		emoji:         opts.Emoji,
		log:           event.For("face"),
	}
	f.state.Store(FaceState{Faces: []FaceResult{}, ShowKeypoints: opts.ShowKeypoints})
	return f
}

// Evaluate classifies every face of a frame. Faces with too few keypoints are
// skipped. frameHeight rescales the pixel thresholds.
func (f *Face) Evaluate(dets []landmark.Detection, frameHeight int) []FaceResult {
	f.mu.RLock()
	th := f.thresholds.Scaled(face.ReferenceHeight, frameHeight)
	boxCfg := f.box
	f.mu.RUnlock()

	results := make([]FaceResult, 0, len(dets))
	for i, d := range dets {
		mouth, err := face.ExtractMouth(d.Keypoints)
		if err == nil {
			var box face.Box
			box, err = face.EstimateBox(d.Keypoints, boxCfg)
			if err == nil {
				results = append(results, FaceResult{
					Mouth: mouth,
					State: face.Classify(mouth, th),
					Box:   box,
				})
				continue
			}
		}
		if errors.Is(err, landmark.ErrIndexOutOfRange) {
			f.log.WithError(err).WithField("face", i).Debug("skipping face")
		}
	}
	return results
}

// Frame draws the emoji for each face and, when enabled, its keypoints.
func (f *Face) Frame(c render.Canvas, dets []landmark.Detection) {
	results := f.Evaluate(dets, c.Bounds().Dy())
	show := f.ShowKeypoints()

	for _, r := range results {
		if img := f.emoji[r.State]; img != nil {
			c.DrawImage(img, r.Box.Rect())
		}
	}

	if show {
		for _, d := range dets {
			for _, p := range d.Keypoints {
				c.Ellipse(image.Pt(int(p.X), int(p.Y)), keypointSize, keypointSize, render.Green)
			}
		}
	}

	f.state.Store(FaceState{Faces: results, ShowKeypoints: show})
}

// ToggleKeypoints flips the keypoint overlay and returns the new setting.
func (f *Face) ToggleKeypoints() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.showKeypoints = !f.showKeypoints
	return f.showKeypoints
}

// ShowKeypoints reports whether keypoints are drawn.
func (f *Face) ShowKeypoints() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.showKeypoints
}

// SetTuning swaps the thresholds and box multipliers from the next frame.
func (f *Face) SetTuning(t config.Tuning) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thresholds = t.Thresholds
	f.box = t.Box
}

// State returns the FaceState of the last drawn frame.
func (f *Face) State() any {
	s, _ := f.state.Load()
	return s
}

// Close releases the emoji images.
func (f *Face) Close() {
	for _, img := range f.emoji {
		if img != nil {
			img.Close()
		}
	}
}
