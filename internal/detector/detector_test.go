package detector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/posesketch/internal/capture"
	"github.com/ayusman/posesketch/internal/face"
	"github.com/ayusman/posesketch/internal/hand"
	"github.com/ayusman/posesketch/internal/landmark"
)

func TestMockDetector(t *testing.T) {
	t.Run("returns empty detections by default", func(t *testing.T) {
		mock := NewMockDetector()

		dets, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(dets) != 0 {
			t.Errorf("expected no detections, got %v", dets)
		}
	})

	t.Run("returns configured detections", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetDetections([]landmark.Detection{ThumbsUpHand(), OpenPalmHand()})

		dets, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(dets) != 2 {
			t.Errorf("expected 2 detections, got %d", len(dets))
		}
	})

	t.Run("cycles through a sequence", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetSequence([][]landmark.Detection{{NeutralFace()}, {}})

		want := []int{1, 0, 1}
		for i, n := range want {
			dets, _ := mock.Detect(nil)
			if len(dets) != n {
				t.Errorf("call %d: expected %d detections, got %d", i, n, len(dets))
			}
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		dets, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if dets != nil {
			t.Errorf("expected nil detections when error is set, got %v", dets)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestFacePresets(t *testing.T) {
	th := face.DefaultThresholds()

	tests := []struct {
		name string
		det  landmark.Detection
		want face.MouthState
	}{
		{"neutral", NeutralFace(), face.Neutral},
		{"smiling", SmilingFace(), face.Smiling},
		{"open", OpenMouthFace(), face.Open},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.det.Keypoints) != landmark.NumFaceLandmarks {
				t.Fatalf("expected %d keypoints, got %d", landmark.NumFaceLandmarks, len(tt.det.Keypoints))
			}
			got, err := face.MouthStateOf(tt.det.Keypoints, th)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("MouthStateOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHandPresets(t *testing.T) {
	thumbsUp := ThumbsUpHand()
	openPalm := OpenPalmHand()

	t.Run("scaled to pixels", func(t *testing.T) {
		if got := thumbsUp.Keypoints[landmark.Wrist]; got.X != 320 || got.Y != 384 {
			t.Errorf("expected wrist at (320, 384), got (%f, %f)", got.X, got.Y)
		}
	})

	t.Run("thumb is extended upward", func(t *testing.T) {
		kps := thumbsUp.Keypoints
		if kps[landmark.ThumbTip].Y >= kps[landmark.ThumbMCP].Y {
			t.Error("thumb tip should be above thumb MCP (lower Y value)")
		}
	})

	t.Run("open palm is quieter than a curled hand", func(t *testing.T) {
		curled, err := hand.Extract(thumbsUp.Keypoints)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		open, err := hand.Extract(openPalm.Keypoints)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if open.AvgDistance <= curled.AvgDistance {
			t.Errorf("expected open palm spread %f > curled spread %f", open.AvgDistance, curled.AvgDistance)
		}

		c := hand.DefaultMappingConfig()
		if hand.Map(open, presetHeight, c).Amplitude >= hand.Map(curled, presetHeight, c).Amplitude {
			t.Error("expected open palm to map to a lower amplitude")
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	faceCfg := DefaultConfig(ModeFace)
	if faceCfg.MaxSubjects != 1 || faceCfg.RefineLandmarks || faceCfg.Flipped {
		t.Errorf("unexpected face defaults: %+v", faceCfg)
	}
	if faceCfg.expectedKeypoints() != landmark.NumFaceLandmarks {
		t.Errorf("expected %d face keypoints, got %d", landmark.NumFaceLandmarks, faceCfg.expectedKeypoints())
	}

	faceCfg.RefineLandmarks = true
	if faceCfg.expectedKeypoints() != landmark.NumRefinedFaceLandmarks {
		t.Errorf("expected %d refined keypoints, got %d", landmark.NumRefinedFaceLandmarks, faceCfg.expectedKeypoints())
	}

	if got := DefaultConfig(ModeHand).expectedKeypoints(); got != landmark.NumHandLandmarks {
		t.Errorf("expected %d hand keypoints, got %d", landmark.NumHandLandmarks, got)
	}
}

func TestJSONDetection(t *testing.T) {
	jd := jsonDetection{
		Keypoints: []jsonPoint{{X: 0.5, Y: 0.25}},
		Label:     "Left",
		Score:     0.8,
	}

	det := jd.toDetection().Scale(640, 480).Mirror(640)

	if det.Keypoints[0].X != 320 || det.Keypoints[0].Y != 120 {
		t.Errorf("unexpected keypoint %+v", det.Keypoints[0])
	}
	if det.Label != "Left" || det.Score != 0.8 {
		t.Errorf("label/score not preserved: %+v", det)
	}
}

func TestStartDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam := capture.NewBlankCamera(640, 480)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	mock := NewMockDetector()
	mock.SetSequence([][]landmark.Detection{{SmilingFace()}, nil})

	var mu sync.Mutex
	var results [][]landmark.Detection

	ctx, cancel := context.WithCancel(context.Background())
	cfg := LoopConfig{IdleFPS: 100, ActiveFPS: 100}
	done := StartDetection(ctx, cam, mock, cfg, func(dets []landmark.Detection) {
		mu.Lock()
		results = append(results, dets)
		mu.Unlock()
	})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(results)
		mu.Unlock()
		if n >= 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected at least 4 results, got %d", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(results[0]) != 1 {
		t.Errorf("expected first result to hold one face, got %d", len(results[0]))
	}
	if results[1] == nil || len(results[1]) != 0 {
		t.Errorf("expected second result to be an empty, non-nil slice, got %v", results[1])
	}
}

func TestStartDetection_ErrorsAreSkipped(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam := capture.NewBlankCamera(64, 48)
	cam.Open()
	defer cam.Close()

	mock := NewMockDetector()
	mock.SetError(errors.New("service down"))

	ctx, cancel := context.WithCancel(context.Background())
	called := false
	done := StartDetection(ctx, cam, mock, LoopConfig{IdleFPS: 100, ActiveFPS: 100}, func([]landmark.Detection) {
		called = true
	})

	for mock.Calls() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if called {
		t.Error("onResult should not run for failed detections")
	}
}
