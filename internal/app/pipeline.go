package app

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/posesketch/internal/landmark"
	"github.com/ayusman/posesketch/internal/render"
)

// jpegQuality of the frames served on the MJPEG stream.
const jpegQuality = 80

// runRender is the render loop. On every tick it:
//  1. reads a camera frame
//  2. takes the latest detections without waiting for the detector
//  3. lets the sketch update and draw onto the frame
//  4. publishes the frame as JPEG
//
// Until the first detection arrives the frame is shown without overlays.
func (a *App) runRender(ctx context.Context) {
	fps := a.cfg.Pipeline.RenderFPS
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	log := a.log.WithField("loop", "render")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			log.WithError(err).Debug("read frame")
			continue
		}

		a.renderFrame(frame)
		frame.Close()
	}
}

// renderFrame draws the current sketch output onto frame and publishes it.
func (a *App) renderFrame(frame *gocv.Mat) {
	if a.cfg.Detector.Flipped {
		gocv.Flip(*frame, frame, 1)
	}

	dets, seq := a.detections.Load()
	if seq == 0 {
		dets = []landmark.Detection{}
	}
	a.sketch.Frame(render.NewMatCanvas(frame), dets)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		a.log.WithError(err).Warn("encode frame")
		return
	}
	// the native buffer is released below, so keep a Go copy
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.frames.Store(jpeg)
	a.frameCount.Add(1)
}
