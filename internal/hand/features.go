// Package hand derives pose features from hand keypoints and maps them to
// oscillator control signals.
package hand

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/posesketch/internal/landmark"
)

// ErrNoKeypoints is returned by Extract for a detection without keypoints.
var ErrNoKeypoints = errors.New("hand has no keypoints")

// ErrNonFinite is returned by Extract when a keypoint coordinate is NaN or
// infinite.
var ErrNonFinite = errors.New("hand features are not finite")

// Features are the pose measurements of one hand.
type Features struct {
	// AvgY is the mean vertical position in frame pixels.
	AvgY float64 `json:"avg_y"`
	// AvgDistance is the mean distance over all unordered keypoint pairs. It
	// grows as the hand opens.
	AvgDistance float64 `json:"avg_distance"`
}

// Extract computes the features of a hand. The pairwise pass is quadratic in
// the keypoint count, which is fixed at 21 for the hand topology.
func Extract(keypoints []landmark.Point) (Features, error) {
	n := len(keypoints)
	if n == 0 {
		return Features{}, ErrNoKeypoints
	}

	ys := make([]float64, n)
	for i, p := range keypoints {
		ys[i] = p.Y
	}

	f := Features{AvgY: stat.Mean(ys, nil)}
	if n < 2 {
		return f, f.check()
	}

	dists := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dists = append(dists, landmark.Distance(keypoints[i], keypoints[j]))
		}
	}
	f.AvgDistance = stat.Mean(dists, nil)

	return f, f.check()
}

func (f Features) check() error {
	for _, v := range []float64{f.AvgY, f.AvgDistance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	return nil
}
