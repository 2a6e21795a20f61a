package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/posesketch/internal/app"
	"github.com/ayusman/posesketch/internal/capture"
	"github.com/ayusman/posesketch/internal/config"
	"github.com/ayusman/posesketch/internal/detector"
	"github.com/ayusman/posesketch/internal/landmark"
	"github.com/ayusman/posesketch/internal/server"
	"github.com/ayusman/posesketch/internal/store"
)

func e2eConfig(mode string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	cfg.Face.SmileImage = ""
	cfg.Face.ShockImage = ""
	cfg.Pipeline.RenderFPS = 60
	cfg.Pipeline.IdleFPS = 60
	cfg.Pipeline.ActiveFPS = 60
	cfg.Pipeline.MotionThreshold = 0
	return &cfg
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func getJSON(t *testing.T, client *http.Client, url string, v any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestE2E_FaceSketch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	mock := detector.NewMockDetector()
	mock.SetDetections([]landmark.Detection{detector.SmilingFace()})

	application, err := app.New(app.Options{
		Config:   e2eConfig(config.ModeFace),
		Store:    s,
		Camera:   capture.NewBlankCamera(640, 480),
		Detector: mock,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer application.Stop()

	ts := httptest.NewServer(server.New(server.Config{Sketch: application}))
	defer ts.Close()
	client := ts.Client()

	t.Run("ReportsSmile", func(t *testing.T) {
		eventually(t, "a smiling face", func() bool {
			var state struct {
				Sketch struct {
					Faces []struct {
						State string `json:"state"`
					} `json:"faces"`
				} `json:"sketch"`
			}
			getJSON(t, client, ts.URL+"/api/state", &state)
			return len(state.Sketch.Faces) == 1 && state.Sketch.Faces[0].State == "smiling"
		})
	})

	t.Run("StreamsFrames", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("GET /api/stream error = %v", err)
		}
		defer resp.Body.Close()

		line, err := bufio.NewReader(resp.Body).ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if strings.TrimSpace(line) != "--frame" {
			t.Errorf("expected frame boundary, got %q", line)
		}
	})

	t.Run("ToggleKeypoints", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/keypoints/toggle", "application/json", nil)
		if err != nil {
			t.Fatalf("toggle error = %v", err)
		}
		defer resp.Body.Close()

		var body map[string]bool
		json.NewDecoder(resp.Body).Decode(&body)
		if !body["show_keypoints"] {
			t.Error("expected keypoints to be shown after toggle")
		}
	})

	t.Run("TuningPersists", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(`{"thresholds":{"smile_ratio":25}}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT /api/settings error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		// ratio 80/4 = 20 no longer counts as a smile
		eventually(t, "a neutral face", func() bool {
			var state struct {
				Sketch struct {
					Faces []struct {
						State string `json:"state"`
					} `json:"faces"`
				} `json:"sketch"`
			}
			getJSON(t, client, ts.URL+"/api/state", &state)
			return len(state.Sketch.Faces) == 1 && state.Sketch.Faces[0].State == "neutral"
		})

		saved, err := s.Settings().LoadTuning(config.ModeFace, config.DefaultTuning())
		if err != nil {
			t.Fatalf("LoadTuning() error = %v", err)
		}
		if saved.Thresholds.SmileRatio != 25 {
			t.Errorf("saved smile ratio = %f, want 25", saved.Thresholds.SmileRatio)
		}
	})

	t.Run("ListsSession", func(t *testing.T) {
		var resp struct {
			Sessions []store.Session `json:"sessions"`
		}
		getJSON(t, client, ts.URL+"/api/sessions", &resp)
		if len(resp.Sessions) != 1 || resp.Sessions[0].Mode != config.ModeFace {
			t.Errorf("unexpected sessions %+v", resp.Sessions)
		}
	})
}

func TestE2E_HandSketch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	hub := server.NewSignalHub(nil)
	mock := detector.NewMockDetector()
	mock.SetDetections([]landmark.Detection{detector.ThumbsUpHand()})

	application, err := app.New(app.Options{
		Config:     e2eConfig(config.ModeHand),
		Camera:     capture.NewBlankCamera(640, 480),
		Detector:   mock,
		Oscillator: hub,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	hub.SetSource(func() any { return application.State().Sketch })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer application.Stop()
	go hub.Run(ctx)

	ts := httptest.NewServer(server.New(server.Config{Sketch: application, Hub: hub}))
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/sound/start", "application/json", nil)
	if err != nil {
		t.Fatalf("start sound error = %v", err)
	}
	resp.Body.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/signals", nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("no audible signal received: %v", err)
		}

		var msg server.SignalMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		if msg.Oscillator.Started && msg.Oscillator.Amplitude > 0 {
			if msg.Oscillator.Frequency < 100 || msg.Oscillator.Frequency > 1000 {
				t.Errorf("frequency %f outside 100..1000 Hz", msg.Oscillator.Frequency)
			}
			break
		}
	}
}
