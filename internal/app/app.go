// Package app wires the capture, detection and render loops of a sketch.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/posesketch/internal/capture"
	"github.com/ayusman/posesketch/internal/config"
	"github.com/ayusman/posesketch/internal/detector"
	"github.com/ayusman/posesketch/internal/event"
	"github.com/ayusman/posesketch/internal/face"
	"github.com/ayusman/posesketch/internal/landmark"
	"github.com/ayusman/posesketch/internal/latest"
	"github.com/ayusman/posesketch/internal/render"
	"github.com/ayusman/posesketch/internal/sketch"
	"github.com/ayusman/posesketch/internal/store"
)

// ErrWrongMode is returned by operations that only exist in the other sketch.
var ErrWrongMode = errors.New("not available in this mode")

// Options holds the dependencies of an App. Only Config is required.
type Options struct {
	Config *config.Config
	// Store persists tuning and sessions. Nil keeps everything in memory.
	Store *store.Store
	// Camera defaults to the configured capture device.
	Camera capture.Camera
	// Detector defaults to the MediaPipe service, or the demo mock when the
	// service is unavailable or Config.Detector.Mock is set.
	Detector detector.Detector
	// Oscillator receives the hand sketch output. Defaults to an in-memory
	// oscillator.
	Oscillator render.Oscillator
}

// App runs one sketch: a detection loop publishing landmarks and a render loop
// drawing the latest of them onto each camera frame.
type App struct {
	cfg          *config.Config
	store        *store.Store
	camera       capture.Camera
	motion       *capture.MotionDetector
	detector     detector.Detector
	detectorName string
	osc          render.Oscillator

	sketch sketch.Sketch
	face   *sketch.Face
	hand   *sketch.Hand

	detections latest.Cell[[]landmark.Detection]
	frames     latest.Cell[[]byte]

	frameCount     atomic.Int64
	detectionCount atomic.Int64
	firstResult    atomic.Bool

	mu      sync.RWMutex
	tuning  config.Tuning
	cancel  context.CancelFunc
	done    []<-chan struct{}
	stopped bool
	session *store.Session

	log *logrus.Entry
}

// New builds an App for cfg.Mode.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is required")
	}
	cfg := opts.Config

	a := &App{
		cfg:      cfg,
		store:    opts.Store,
		camera:   opts.Camera,
		detector: opts.Detector,
		osc:      opts.Oscillator,
		tuning:   cfg.Tuning,
		log:      event.For("app").WithField("mode", cfg.Mode),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.Config{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			File:     cfg.Camera.File,
		})
	}
	if cfg.Pipeline.MotionThreshold > 0 {
		a.motion = capture.NewMotionDetector(cfg.Pipeline.MotionThreshold)
	}
	if a.osc == nil {
		a.osc = render.NewStateOscillator()
	}

	if a.store != nil {
		t, err := a.store.Settings().LoadTuning(cfg.Mode, cfg.Tuning)
		if err != nil {
			a.log.WithError(err).Warn("ignoring saved tuning")
		}
		a.tuning = t
	}

	a.detectorName = "custom"
	if a.detector == nil {
		a.detector, a.detectorName = newDetector(cfg, a.log)
	}

	switch cfg.Mode {
	case config.ModeFace:
		a.face = sketch.NewFace(sketch.FaceOptions{
			Tuning:        a.tuning,
			ShowKeypoints: cfg.Face.ShowKeypoints,
			Emoji: map[face.MouthState]*render.Image{
				face.Smiling: loadEmoji(cfg.Face.SmileImage, a.log),
				face.Open:    loadEmoji(cfg.Face.ShockImage, a.log),
			},
		})
		a.sketch = a.face
	case config.ModeHand:
		a.hand = sketch.NewHand(a.tuning, a.osc)
		a.sketch = a.hand
	default:
		return nil, fmt.Errorf("app: unknown mode %q", cfg.Mode)
	}

	return a, nil
}

func newDetector(cfg *config.Config, log *logrus.Entry) (detector.Detector, string) {
	mode := detector.Mode(cfg.Mode)

	if !cfg.Detector.Mock {
		mp, err := detector.NewMediaPipeDetector(detectorConfig(cfg))
		if err == nil {
			log.Info("using MediaPipe landmark service")
			return mp, "mediapipe"
		}
		log.WithError(err).Warn("MediaPipe not available, using demo detector")
	}

	mock := detector.NewMockDetector()
	mock.SetSequence(detector.DemoSequence(mode))
	return mock, "mock"
}

// detectorConfig starts from the mode's provider defaults and applies the
// configured options.
func detectorConfig(cfg *config.Config) detector.Config {
	dc := detector.DefaultConfig(detector.Mode(cfg.Mode))
	if cfg.Detector.MaxSubjects > 0 {
		dc.MaxSubjects = cfg.Detector.MaxSubjects
	}
	dc.RefineLandmarks = cfg.Detector.RefineLandmarks
	dc.Flipped = cfg.Detector.Flipped
	dc.MinConfidence = cfg.Detector.MinConfidence
	return dc
}

// loadEmoji returns nil when the image cannot be read; the face sketch then
// draws nothing for that state.
func loadEmoji(path string, log *logrus.Entry) *render.Image {
	if path == "" {
		return nil
	}
	img, err := render.LoadImage(path)
	if err != nil {
		log.WithError(err).Warn("emoji image unavailable")
		return nil
	}
	return img
}

// Start opens the camera and launches the detection and render loops. The
// loops stop when ctx is done or Stop is called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return errors.New("app: already stopped")
	}
	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.cfg.Pipeline.RenderFPS)

	a.frameCount.Store(0)
	a.detectionCount.Store(0)
	a.firstResult.Store(false)
	a.startSession()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	detected := detector.StartDetection(ctx, a.camera, a.detector, detector.LoopConfig{
		IdleFPS:     a.cfg.Pipeline.IdleFPS,
		ActiveFPS:   a.cfg.Pipeline.ActiveFPS,
		IdleTimeout: a.cfg.Pipeline.IdleTimeout,
		Motion:      a.motion,
	}, a.publish)

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		a.runRender(ctx)
	}()

	a.done = []<-chan struct{}{detected, rendered}
	a.log.WithField("detector", a.detectorName).Info("sketch started")
	return nil
}

// Stop halts both loops and releases the camera and detector. The App cannot
// be restarted after Stop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	a.stopped = true

	if a.cancel != nil {
		a.cancel()
		for _, done := range a.done {
			<-done
		}
		a.cancel = nil
		a.done = nil
		a.finishSession()
	}

	if err := a.camera.Close(); err != nil {
		a.log.WithError(err).Warn("close camera")
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if err := a.detector.Close(); err != nil {
		a.log.WithError(err).Warn("close detector")
	}
	a.sketch.Close()

	a.log.WithFields(event.Fields{
		"frames":     a.frameCount.Load(),
		"detections": a.detectionCount.Load(),
	}).Info("sketch stopped")
}

// publish is the detection loop's only output.
func (a *App) publish(dets []landmark.Detection) {
	a.detections.Store(dets)
	if len(dets) == 0 {
		return
	}
	a.detectionCount.Add(1)
	if a.firstResult.CompareAndSwap(false, true) {
		a.log.WithFields(event.Fields{
			"subjects":  len(dets),
			"keypoints": len(dets[0].Keypoints),
		}).Info("first landmarks received")
	}
}

func (a *App) startSession() {
	if a.store == nil {
		return
	}
	sess := &store.Session{
		ID:        uuid.NewString(),
		Mode:      a.cfg.Mode,
		Detector:  a.detectorName,
		StartedAt: time.Now(),
	}
	if err := a.store.Sessions().Create(sess); err != nil {
		a.log.WithError(err).Warn("record session")
		return
	}
	a.session = sess
}

func (a *App) finishSession() {
	if a.store == nil || a.session == nil {
		return
	}
	if err := a.store.Sessions().Finish(a.session.ID, a.frameCount.Load(), a.detectionCount.Load()); err != nil {
		a.log.WithError(err).Warn("finish session")
	}
	a.session = nil
}

// Mode returns the sketch mode.
func (a *App) Mode() string {
	return a.cfg.Mode
}

// Frame returns the latest rendered frame as JPEG and its sequence number.
// seq is 0 until the first frame is rendered.
func (a *App) Frame() ([]byte, uint64) {
	return a.frames.Load()
}

// Oscillator returns the oscillator driven by the hand sketch.
func (a *App) Oscillator() render.Oscillator {
	return a.osc
}

// State is the status reported by the HTTP API.
type State struct {
	Mode       string `json:"mode"`
	Detector   string `json:"detector"`
	Running    bool   `json:"running"`
	Session    string `json:"session,omitempty"`
	Frames     int64  `json:"frames"`
	Detections int64  `json:"detections"`
	Sketch     any    `json:"sketch"`
}

// State returns a snapshot of the pipeline and sketch outputs.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := State{
		Mode:       a.cfg.Mode,
		Detector:   a.detectorName,
		Running:    a.cancel != nil,
		Frames:     a.frameCount.Load(),
		Detections: a.detectionCount.Load(),
		Sketch:     a.sketch.State(),
	}
	if a.session != nil {
		s.Session = a.session.ID
	}
	return s
}

// ToggleKeypoints flips the face keypoint overlay.
func (a *App) ToggleKeypoints() (bool, error) {
	if a.face == nil {
		return false, ErrWrongMode
	}
	return a.face.ToggleKeypoints(), nil
}

// StartSound starts the hand sketch oscillator.
func (a *App) StartSound() error {
	if a.hand == nil {
		return ErrWrongMode
	}
	a.hand.StartSound()
	return nil
}

// Tuning returns the tuning in effect.
func (a *App) Tuning() config.Tuning {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tuning
}

// SetTuning validates t, persists it and applies it from the next frame. When
// the save fails the running tuning is left as it was.
func (a *App) SetTuning(t config.Tuning) error {
	if err := config.ValidateTuning(&t); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// persisted first: a failed save leaves the running tuning untouched
	if a.store != nil {
		if err := a.store.Settings().SaveTuning(a.cfg.Mode, t); err != nil {
			return fmt.Errorf("save tuning: %w", err)
		}
	}

	a.tuning = t
	a.sketch.SetTuning(t)
	return nil
}

// ResetTuning drops the saved tuning and returns to the configured one.
func (a *App) ResetTuning() (config.Tuning, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		if err := a.store.Settings().DeleteTuning(a.cfg.Mode); err != nil {
			return a.tuning, fmt.Errorf("delete tuning: %w", err)
		}
	}

	a.tuning = a.cfg.Tuning
	a.sketch.SetTuning(a.tuning)
	return a.tuning, nil
}

// Sessions lists recent runs. Without a store it returns an empty list.
func (a *App) Sessions(limit int) ([]*store.Session, error) {
	if a.store == nil {
		return []*store.Session{}, nil
	}
	return a.store.Sessions().List(limit)
}
