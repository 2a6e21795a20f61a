package landmark

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const epsilon = 1e-9

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Point{X: 3, Y: 4}, Point{X: 3, Y: 4}, 0},
		{"3-4-5 triangle", Point{}, Point{X: 3, Y: 4}, 5},
		{"ignores depth", Point{Z: 10}, Point{X: 100, Z: -10}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > epsilon {
				t.Errorf("Distance() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAt(t *testing.T) {
	kps := []Point{{X: 1}, {X: 2}}

	t.Run("in range", func(t *testing.T) {
		p, err := At(kps, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.X != 2 {
			t.Errorf("expected X 2, got %f", p.X)
		}
	})

	t.Run("past the end", func(t *testing.T) {
		_, err := At(kps, 2)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("expected ErrIndexOutOfRange, got %v", err)
		}
	})

	t.Run("negative", func(t *testing.T) {
		_, err := At(kps, -1)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("expected ErrIndexOutOfRange, got %v", err)
		}
	})
}

func TestRequire(t *testing.T) {
	kps := make([]Point, NumHandLandmarks)

	if err := Require(kps, Wrist, PinkyTip); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Require(kps, MouthIndices...); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange for face indices on a hand, got %v", err)
	}
}

func TestDetection_MirrorAndScale(t *testing.T) {
	d := Detection{
		Keypoints: []Point{{X: 0.25, Y: 0.5, Z: 0.1}},
		Label:     "Left",
		Score:     0.9,
	}

	scaled := d.Scale(640, 480)
	want := Detection{
		Keypoints: []Point{{X: 160, Y: 240, Z: 64}},
		Label:     "Left",
		Score:     0.9,
	}
	if diff := cmp.Diff(want, scaled); diff != "" {
		t.Errorf("Scale() mismatch (-want +got):\n%s", diff)
	}

	mirrored := scaled.Mirror(640)
	if mirrored.Keypoints[0].X != 480 {
		t.Errorf("expected mirrored X 480, got %f", mirrored.Keypoints[0].X)
	}
	if d.Keypoints[0].X != 0.25 {
		t.Error("Scale must not modify the receiver")
	}
}
