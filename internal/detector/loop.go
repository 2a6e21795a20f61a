package detector

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/posesketch/internal/capture"
	"github.com/ayusman/posesketch/internal/event"
	"github.com/ayusman/posesketch/internal/landmark"
)

// LoopConfig sets the detection cadence.
type LoopConfig struct {
	// IdleFPS is the detection rate while the scene is still.
	IdleFPS int
	// ActiveFPS is the detection rate while there is motion.
	ActiveFPS int
	// IdleTimeout is how long without motion before dropping to IdleFPS.
	IdleTimeout time.Duration
	// Motion gates the rate. Nil runs at ActiveFPS throughout.
	Motion *capture.MotionDetector
}

// DefaultLoopConfig returns a motion-gated 5/15 FPS loop.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		IdleFPS:     5,
		ActiveFPS:   15,
		IdleTimeout: 2 * time.Second,
	}
}

// StartDetection runs d over frames from cam on its own goroutine and hands
// every result to onResult, including empty ones. It is the only writer of
// detection results; onResult must not block. The returned channel is closed
// when ctx is done and the loop has exited.
//
// While the scene is still the loop keeps detecting at IdleFPS, so stale
// results are refreshed slowly rather than never.
func StartDetection(ctx context.Context, cam capture.Camera, d Detector, cfg LoopConfig, onResult func([]landmark.Detection)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runDetection(ctx, cam, d, cfg, onResult)
	}()
	return done
}

func runDetection(ctx context.Context, cam capture.Camera, d Detector, cfg LoopConfig, onResult func([]landmark.Detection)) {
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = DefaultLoopConfig().IdleFPS
	}
	if cfg.ActiveFPS < cfg.IdleFPS {
		cfg.ActiveFPS = cfg.IdleFPS
	}

	log := event.For("detection").WithField("session", uuid.NewString())

	// Start active so the first frames are detected without waiting for motion.
	active := true
	lastMotion := time.Now()
	interval := time.Second / time.Duration(cfg.ActiveFPS)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// the camera is shared with the render loop, so only the ticker changes
	setRate := func(fps int) {
		ticker.Reset(time.Second / time.Duration(fps))
	}

	log.Info("detection started")
	defer log.Info("detection stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			log.WithError(err).Debug("read frame")
			continue
		}

		if cfg.Motion != nil {
			m := cfg.Motion.Detect(frame)
			switch {
			case m.Detected:
				lastMotion = time.Now()
				if !active {
					active = true
					setRate(cfg.ActiveFPS)
					log.WithField("changed", m.Changed).Debug("switched to active rate")
				}
			case active && time.Since(lastMotion) > cfg.IdleTimeout:
				active = false
				setRate(cfg.IdleFPS)
				log.Debug("switched to idle rate")
			}
		}

		dets, err := d.Detect(frame)
		frame.Close()
		if err != nil {
			log.WithError(err).Warn("detect landmarks")
			continue
		}
		if dets == nil {
			dets = []landmark.Detection{}
		}

		onResult(dets)
	}
}
