package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// sampleWidth is the width frames are shrunk to before comparison.
	sampleWidth = 160
	// blurSize is the Gaussian kernel applied before differencing.
	blurSize = 7
	// diffThreshold is the per-pixel intensity change that counts as changed.
	diffThreshold = 25
)

// Motion is the result of comparing a frame with its predecessor.
type Motion struct {
	Detected bool
	// Changed is the percentage of pixels that changed.
	Changed float64
}

// MotionDetector compares consecutive frames with blurred frame differencing
// on a downscaled grayscale copy. The detection loop uses it to drop to its
// idle rate while the scene is still.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	baseline  gocv.Mat
}

// NewMotionDetector returns a detector that reports motion once more than
// threshold percent of the pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, baseline: gocv.NewMat()}
}

// Detect compares frame with the previous one. The first frame, and any frame
// whose size differs from the baseline, primes the detector and reports no
// motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	if frame == nil || frame.Empty() {
		return Motion{}
	}

	sample := prepare(frame)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.baseline.Empty() || m.baseline.Rows() != sample.Rows() || m.baseline.Cols() != sample.Cols() {
		m.baseline.Close()
		m.baseline = sample
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(sample, m.baseline, &diff)
	gocv.Threshold(diff, &diff, diffThreshold, 255, gocv.ThresholdBinary)

	changed := 100 * float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols())

	m.baseline.Close()
	m.baseline = sample

	return Motion{Detected: changed > m.threshold, Changed: changed}
}

// prepare returns a blurred grayscale copy of frame at most sampleWidth wide.
func prepare(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	if gray.Cols() > sampleWidth {
		h := gray.Rows() * sampleWidth / gray.Cols()
		gocv.Resize(gray, &gray, image.Pt(sampleWidth, max(h, 1)), 0, 0, gocv.InterpolationArea)
	}

	gocv.GaussianBlur(gray, &gray, image.Pt(blurSize, blurSize), 0, 0, gocv.BorderDefault)
	return gray
}

// Primed reports whether a baseline frame is stored.
func (m *MotionDetector) Primed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.baseline.Empty()
}

// Reset drops the baseline so the next frame primes the detector again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline.Close()
	m.baseline = gocv.NewMat()
}

// Close releases the stored baseline.
func (m *MotionDetector) Close() {
	m.Reset()
}
