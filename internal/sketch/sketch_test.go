package sketch

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posesketch/internal/config"
	"github.com/ayusman/posesketch/internal/detector"
	"github.com/ayusman/posesketch/internal/face"
	"github.com/ayusman/posesketch/internal/landmark"
	"github.com/ayusman/posesketch/internal/render"
)

type blit struct {
	img  *render.Image
	rect image.Rectangle
}

// recordingCanvas records draw calls without touching pixels.
type recordingCanvas struct {
	bounds   image.Rectangle
	blits    []blit
	ellipses int
	circles  int
}

func newRecordingCanvas(w, h int) *recordingCanvas {
	return &recordingCanvas{bounds: image.Rect(0, 0, w, h)}
}

func (c *recordingCanvas) DrawImage(img *render.Image, rect image.Rectangle) {
	c.blits = append(c.blits, blit{img, rect})
}
func (c *recordingCanvas) Ellipse(image.Point, int, int, color.RGBA) { c.ellipses++ }
func (c *recordingCanvas) Circle(image.Point, int, color.RGBA)       { c.circles++ }
func (c *recordingCanvas) Bounds() image.Rectangle                   { return c.bounds }

func TestFace_Evaluate(t *testing.T) {
	f := NewFace(FaceOptions{Tuning: config.DefaultTuning()})

	results := f.Evaluate([]landmark.Detection{
		detector.NeutralFace(),
		detector.SmilingFace(),
		detector.OpenMouthFace(),
	}, 480)

	require.Len(t, results, 3)
	assert.Equal(t, face.Neutral, results[0].State)
	assert.Equal(t, face.Smiling, results[1].State)
	assert.Equal(t, face.Open, results[2].State)
	for _, r := range results {
		assert.False(t, r.Box.Empty())
	}
}

func TestFace_EvaluateSkipsShortDetections(t *testing.T) {
	f := NewFace(FaceOptions{Tuning: config.DefaultTuning()})

	short := landmark.Detection{Keypoints: make([]landmark.Point, 20)}
	results := f.Evaluate([]landmark.Detection{short, detector.SmilingFace()}, 480)

	require.Len(t, results, 1)
	assert.Equal(t, face.Smiling, results[0].State)
}

func TestFace_ThresholdsFollowFrameHeight(t *testing.T) {
	f := NewFace(FaceOptions{Tuning: config.DefaultTuning()})
	open := detector.OpenMouthFace()

	// a 30px mouth opening is open at 480 rows but not at 1440
	assert.Equal(t, face.Open, f.Evaluate([]landmark.Detection{open}, 480)[0].State)
	assert.NotEqual(t, face.Open, f.Evaluate([]landmark.Detection{open}, 1440)[0].State)
}

func TestFace_Frame(t *testing.T) {
	smile, shock := &render.Image{}, &render.Image{}
	f := NewFace(FaceOptions{
		Tuning: config.DefaultTuning(),
		Emoji:  map[face.MouthState]*render.Image{face.Smiling: smile, face.Open: shock},
	})

	t.Run("emoji per mouth state", func(t *testing.T) {
		c := newRecordingCanvas(640, 480)
		f.Frame(c, []landmark.Detection{detector.NeutralFace(), detector.SmilingFace(), detector.OpenMouthFace()})

		require.Len(t, c.blits, 2)
		assert.Same(t, smile, c.blits[0].img)
		assert.Same(t, shock, c.blits[1].img)
		assert.Zero(t, c.ellipses)

		state := f.State().(FaceState)
		assert.Len(t, state.Faces, 3)
		assert.False(t, state.ShowKeypoints)
	})

	t.Run("keypoints when toggled", func(t *testing.T) {
		assert.True(t, f.ToggleKeypoints())
		defer f.ToggleKeypoints()

		c := newRecordingCanvas(640, 480)
		f.Frame(c, []landmark.Detection{detector.NeutralFace()})

		assert.Equal(t, landmark.NumFaceLandmarks, c.ellipses)
		assert.True(t, f.State().(FaceState).ShowKeypoints)
	})

	t.Run("empty frame clears state", func(t *testing.T) {
		c := newRecordingCanvas(640, 480)
		f.Frame(c, []landmark.Detection{})

		assert.Empty(t, c.blits)
		assert.Empty(t, f.State().(FaceState).Faces)
	})
}

func TestFace_SetTuning(t *testing.T) {
	f := NewFace(FaceOptions{Tuning: config.DefaultTuning()})

	tuning := config.DefaultTuning()
	tuning.Thresholds.OpenHeight = 100
	f.SetTuning(tuning)

	results := f.Evaluate([]landmark.Detection{detector.OpenMouthFace()}, 480)
	require.Len(t, results, 1)
	assert.Equal(t, face.Neutral, results[0].State)
}

func TestHand_Frame(t *testing.T) {
	osc := render.NewStateOscillator()
	h := NewHand(config.DefaultTuning(), osc)

	c := newRecordingCanvas(640, 480)
	h.Frame(c, []landmark.Detection{detector.ThumbsUpHand(), detector.OpenPalmHand()})

	assert.Equal(t, 2*landmark.NumHandLandmarks, c.circles)

	state := h.State().(HandState)
	assert.Equal(t, 2, state.Hands)
	assert.Greater(t, state.Signal.Amplitude, 0.0)
	assert.InDelta(t, state.Signal.Frequency, osc.State().Frequency, 1e-9)
	assert.InDelta(t, state.Signal.Amplitude, osc.State().Amplitude, 1e-9)
	assert.False(t, state.Output.Started)
}

func TestHand_NoHandsHoldsFrequency(t *testing.T) {
	osc := render.NewStateOscillator()
	h := NewHand(config.DefaultTuning(), osc)
	c := newRecordingCanvas(640, 480)

	h.Frame(c, []landmark.Detection{detector.ThumbsUpHand()})
	freq := osc.State().Frequency
	require.NotEqual(t, 440.0, freq)

	h.Frame(c, nil)

	assert.Equal(t, freq, osc.State().Frequency)
	assert.Zero(t, osc.State().Amplitude)
	assert.Equal(t, 0, h.State().(HandState).Hands)
}

func TestHand_StartSound(t *testing.T) {
	osc := render.NewStateOscillator()
	h := NewHand(config.DefaultTuning(), osc)

	assert.False(t, osc.Started())
	h.StartSound()
	h.StartSound()
	assert.True(t, osc.Started())
}

func TestHand_SetTuning(t *testing.T) {
	osc := render.NewStateOscillator()
	h := NewHand(config.DefaultTuning(), osc)

	tuning := config.DefaultTuning()
	tuning.Mapping.FrequencyLo = 200
	tuning.Mapping.FrequencyHi = 200
	h.SetTuning(tuning)

	sig := h.Apply([]landmark.Detection{detector.OpenPalmHand()}, 480)
	assert.Equal(t, 200.0, sig.Frequency)
}

func TestSketchInterface(t *testing.T) {
	var _ Sketch = (*Face)(nil)
	var _ Sketch = (*Hand)(nil)
}
