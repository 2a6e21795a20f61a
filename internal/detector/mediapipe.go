package detector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/posesketch/internal/event"
	"github.com/ayusman/posesketch/internal/landmark"
)

const (
	serviceScript = "landmark_service.py"
	idleShutdown  = 30 * time.Second
)

// MediaPipeDetector implements Detector with a Python MediaPipe subprocess.
// Frames go to its stdin as length-prefixed JPEG; results come back as one
// JSON line per frame with normalized coordinates.
type MediaPipeDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	stderr    *io.PipeWriter
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
	log       *logrus.Entry
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := findServiceScript()
	if script == "" {
		return nil, fmt.Errorf("%s not found", serviceScript)
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		log:    event.For("mediapipe").WithField("mode", config.Mode),
	}, nil
}

// Detect encodes the frame, sends it to the service and converts the result
// to pixel coordinates.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]landmark.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	raw, err := d.roundTrip(buf.GetBytes())
	if err != nil {
		return nil, err
	}

	width, height := float64(frame.Cols()), float64(frame.Rows())
	want := d.config.expectedKeypoints()

	result := make([]landmark.Detection, 0, len(raw))
	for _, jd := range raw {
		if len(jd.Keypoints) != want {
			d.log.WithField("keypoints", len(jd.Keypoints)).Debugf("unexpected keypoint count, want %d", want)
		}
		det := jd.toDetection().Scale(width, height)
		if d.config.Flipped {
			det = det.Mirror(width)
		}
		result = append(result, det)
	}

	d.resetIdleTimer()

	return result, nil
}

// roundTrip sends one frame and reads its answer. A broken pipe stops the
// service so the next frame starts a fresh one.
func (d *MediaPipeDetector) roundTrip(jpeg []byte) ([]jsonDetection, error) {
	var raw []jsonDetection
	err := writeFrame(d.stdin, jpeg)
	if err == nil {
		raw, err = readResult(d.stdout)
	}
	if err == nil || !isTransportError(err) {
		return raw, err
	}
	if serr := d.shutdown(); serr != nil {
		d.log.WithError(serr).Debug("landmark service exited")
	}
	return nil, err
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) args() []string {
	args := []string{
		d.script,
		"--mode", string(d.config.Mode),
		"--max-subjects", strconv.Itoa(d.config.MaxSubjects),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
	}
	if d.config.RefineLandmarks {
		args = append(args, "--refine-landmarks")
	}
	return args
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.args()...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// service diagnostics end up in our log
	d.stderr = d.log.WriterLevel(logrus.DebugLevel)
	d.cmd.Stderr = d.stderr

	if err := d.cmd.Start(); err != nil {
		d.stderr.Close()
		return fmt.Errorf("start landmark service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.log.WithField("script", d.script).Info("landmark service started")

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.stderr.Close()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	d.stderr = nil
	d.log.Info("landmark service stopped")

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.log.WithError(err).Warn("idle shutdown")
		}
	})
}

// findServiceScript looks next to the working directory, the executable and
// the per-user data directory.
func findServiceScript() string {
	return firstExisting(searchDirs(), filepath.Join("scripts", serviceScript))
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	return firstExisting(searchDirs(), filepath.Join("venv", "bin", "python"))
}

func searchDirs() []string {
	dirs := []string{".", ".."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".posesketch"))
	}
	return dirs
}

func firstExisting(dirs []string, rel string) string {
	for _, dir := range dirs {
		p := filepath.Join(dir, rel)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
