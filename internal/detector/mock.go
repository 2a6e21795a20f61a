package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/posesketch/internal/landmark"
)

// MockDetector is a Detector whose results are set by the caller. Set a
// sequence to replay a different result on every call.
type MockDetector struct {
	mu       sync.Mutex
	sequence [][]landmark.Detection
	calls    int
	err      error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections makes every call return dets.
func (m *MockDetector) SetDetections(dets []landmark.Detection) {
	m.SetSequence([][]landmark.Detection{dets})
}

// SetSequence makes successive calls cycle through seq.
func (m *MockDetector) SetSequence(seq [][]landmark.Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.calls = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next configured result or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]landmark.Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) == 0 {
		return nil, nil
	}
	return m.sequence[i%len(m.sequence)], nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Preset frame size used by the canned detections.
const (
	presetWidth  = 640
	presetHeight = 480
)

// faceMesh lays out a plausible face: every keypoint on an ellipse around the
// face centre, with the keypoints the heuristics read placed explicitly.
func faceMesh(mouthWidth, mouthHeight float64) landmark.Detection {
	const cx, cy, rx, ry = 320.0, 240.0, 90.0, 120.0

	kps := make([]landmark.Point, landmark.NumFaceLandmarks)
	for i := range kps {
		a := 2 * math.Pi * float64(i) / float64(len(kps))
		kps[i] = landmark.Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}
	}

	kps[landmark.Forehead] = landmark.Point{X: cx, Y: cy - ry}
	kps[landmark.Chin] = landmark.Point{X: cx, Y: cy + ry}
	kps[landmark.LeftEye] = landmark.Point{X: cx - 35, Y: cy - 30}
	kps[landmark.RightEye] = landmark.Point{X: cx + 35, Y: cy - 30}

	const mouthY = cy + 60
	kps[landmark.MouthLeft] = landmark.Point{X: cx - mouthWidth/2, Y: mouthY}
	kps[landmark.MouthRight] = landmark.Point{X: cx + mouthWidth/2, Y: mouthY}
	kps[landmark.UpperLip] = landmark.Point{X: cx, Y: mouthY - mouthHeight/2}
	kps[landmark.LowerLip] = landmark.Point{X: cx, Y: mouthY + mouthHeight/2}

	return landmark.Detection{Keypoints: kps, Score: 0.97}
}

// NeutralFace returns a face with a relaxed, closed mouth.
func NeutralFace() landmark.Detection { return faceMesh(50, 8) }

// SmilingFace returns a face with a wide, nearly closed mouth.
func SmilingFace() landmark.Detection { return faceMesh(80, 4) }

// OpenMouthFace returns a face with the lips well apart.
func OpenMouthFace() landmark.Detection { return faceMesh(50, 30) }

// handFromNormalized scales a normalized hand layout to the preset frame.
func handFromNormalized(points [landmark.NumHandLandmarks]landmark.Point) landmark.Detection {
	det := landmark.Detection{
		Keypoints: points[:],
		Label:     "Right",
		Score:     0.95,
	}
	return det.Scale(presetWidth, presetHeight)
}

// ThumbsUpHand returns a right hand with the thumb extended upward while other
// fingers are curled.
func ThumbsUpHand() landmark.Detection {
	var p [landmark.NumHandLandmarks]landmark.Point

	p[landmark.Wrist] = landmark.Point{X: 0.5, Y: 0.8}

	p[landmark.ThumbCMC] = landmark.Point{X: 0.55, Y: 0.75}
	p[landmark.ThumbMCP] = landmark.Point{X: 0.58, Y: 0.65}
	p[landmark.ThumbIP] = landmark.Point{X: 0.58, Y: 0.50}
	p[landmark.ThumbTip] = landmark.Point{X: 0.58, Y: 0.35}

	p[landmark.IndexMCP] = landmark.Point{X: 0.55, Y: 0.70, Z: -0.02}
	p[landmark.IndexPIP] = landmark.Point{X: 0.55, Y: 0.68, Z: -0.05}
	p[landmark.IndexDIP] = landmark.Point{X: 0.52, Y: 0.70, Z: -0.04}
	p[landmark.IndexTip] = landmark.Point{X: 0.50, Y: 0.72, Z: -0.02}

	p[landmark.MiddleMCP] = landmark.Point{X: 0.50, Y: 0.68, Z: -0.02}
	p[landmark.MiddlePIP] = landmark.Point{X: 0.50, Y: 0.66, Z: -0.05}
	p[landmark.MiddleDIP] = landmark.Point{X: 0.47, Y: 0.68, Z: -0.04}
	p[landmark.MiddleTip] = landmark.Point{X: 0.45, Y: 0.70, Z: -0.02}

	p[landmark.RingMCP] = landmark.Point{X: 0.45, Y: 0.70, Z: -0.02}
	p[landmark.RingPIP] = landmark.Point{X: 0.45, Y: 0.68, Z: -0.05}
	p[landmark.RingDIP] = landmark.Point{X: 0.42, Y: 0.70, Z: -0.04}
	p[landmark.RingTip] = landmark.Point{X: 0.40, Y: 0.72, Z: -0.02}

	p[landmark.PinkyMCP] = landmark.Point{X: 0.40, Y: 0.72, Z: -0.02}
	p[landmark.PinkyPIP] = landmark.Point{X: 0.40, Y: 0.70, Z: -0.05}
	p[landmark.PinkyDIP] = landmark.Point{X: 0.37, Y: 0.72, Z: -0.04}
	p[landmark.PinkyTip] = landmark.Point{X: 0.35, Y: 0.74, Z: -0.02}

	return handFromNormalized(p)
}

// OpenPalmHand returns a right hand with all fingers spread.
func OpenPalmHand() landmark.Detection {
	var p [landmark.NumHandLandmarks]landmark.Point

	p[landmark.Wrist] = landmark.Point{X: 0.5, Y: 0.8}

	p[landmark.ThumbCMC] = landmark.Point{X: 0.55, Y: 0.75, Z: 0.02}
	p[landmark.ThumbMCP] = landmark.Point{X: 0.62, Y: 0.70, Z: 0.03}
	p[landmark.ThumbIP] = landmark.Point{X: 0.68, Y: 0.65, Z: 0.03}
	p[landmark.ThumbTip] = landmark.Point{X: 0.73, Y: 0.60, Z: 0.03}

	p[landmark.IndexMCP] = landmark.Point{X: 0.55, Y: 0.68}
	p[landmark.IndexPIP] = landmark.Point{X: 0.57, Y: 0.55}
	p[landmark.IndexDIP] = landmark.Point{X: 0.58, Y: 0.45}
	p[landmark.IndexTip] = landmark.Point{X: 0.58, Y: 0.35}

	p[landmark.MiddleMCP] = landmark.Point{X: 0.50, Y: 0.66}
	p[landmark.MiddlePIP] = landmark.Point{X: 0.50, Y: 0.52}
	p[landmark.MiddleDIP] = landmark.Point{X: 0.50, Y: 0.40}
	p[landmark.MiddleTip] = landmark.Point{X: 0.50, Y: 0.28}

	p[landmark.RingMCP] = landmark.Point{X: 0.45, Y: 0.68}
	p[landmark.RingPIP] = landmark.Point{X: 0.43, Y: 0.55}
	p[landmark.RingDIP] = landmark.Point{X: 0.42, Y: 0.45}
	p[landmark.RingTip] = landmark.Point{X: 0.42, Y: 0.35}

	p[landmark.PinkyMCP] = landmark.Point{X: 0.40, Y: 0.70}
	p[landmark.PinkyPIP] = landmark.Point{X: 0.37, Y: 0.60}
	p[landmark.PinkyDIP] = landmark.Point{X: 0.35, Y: 0.50}
	p[landmark.PinkyTip] = landmark.Point{X: 0.34, Y: 0.42}

	return handFromNormalized(p)
}

// DemoSequence returns a looping sequence of canned results for mode, used
// when no landmark service is available.
func DemoSequence(mode Mode) [][]landmark.Detection {
	if mode == ModeHand {
		return [][]landmark.Detection{
			{ThumbsUpHand()},
			{OpenPalmHand()},
			{},
		}
	}
	return [][]landmark.Detection{
		{NeutralFace()},
		{SmilingFace()},
		{OpenMouthFace()},
		{},
	}
}
