// Package capture provides the webcam frame source using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned by ReadFrame before Open or after Close.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame is returned when the device delivered nothing usable.
	ErrNoFrame = errors.New("no frame from camera")
)

// Camera is a frame source. Several loops may read from the same Camera; each
// ReadFrame returns the next frame the device delivers.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns a new frame. The caller must close it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	// Size returns the capture resolution in pixels.
	Size() (width, height int)
}

// Config selects the device and its requested resolution. A non-empty File
// is replayed in a loop instead of opening DeviceID.
type Config struct {
	DeviceID int
	Width    int
	Height   int
	File     string
}

// source is what gocv.OpenVideoCapture receives: a device index or a path.
func (c Config) source() any {
	if c.File != "" {
		return c.File
	}
	return c.DeviceID
}

func (c Config) String() string {
	if c.File != "" {
		return "file " + c.File
	}
	return fmt.Sprintf("device %d", c.DeviceID)
}

type videoCamera struct {
	mu     sync.Mutex
	cfg    Config
	vc     *gocv.VideoCapture
	fps    int
	width  int
	height int
}

// NewCamera creates a Camera for cfg. Zero sizes fall back to 640x480.
func NewCamera(cfg Config) Camera {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	return &videoCamera{cfg: cfg, fps: DefaultFPS, width: cfg.Width, height: cfg.Height}
}

// Open opens the source and requests the configured resolution. The device
// may pick a different one; Size reports what it actually delivers. Opening
// an open camera is a no-op.
func (c *videoCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.cfg.source())
	if err != nil {
		return fmt.Errorf("open camera %s: %w", c.cfg, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open camera %s: not available", c.cfg)
	}

	if c.cfg.File == "" {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
		vc.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}
	if w := int(vc.Get(gocv.VideoCaptureFrameWidth)); w > 0 {
		c.width = w
	}
	if h := int(vc.Get(gocv.VideoCaptureFrameHeight)); h > 0 {
		c.height = h
	}

	c.vc = vc
	return nil
}

func (c *videoCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	return err
}

func (c *videoCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	ok := c.vc.Read(&mat)
	if (!ok || mat.Empty()) && c.cfg.File != "" {
		// end of file, rewind
		c.vc.Set(gocv.VideoCapturePosFrames, 0)
		ok = c.vc.Read(&mat)
	}
	if !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("read %s: %w", c.cfg, ErrNoFrame)
	}
	return &mat, nil
}

// SetFPS requests a capture rate from the device. Values <= 0 are ignored.
func (c *videoCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
	if c.vc != nil && c.cfg.File == "" {
		c.vc.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *videoCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *videoCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc != nil
}

func (c *videoCamera) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}
