package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ayusman/posesketch/internal/landmark"
)

// maxFrameBytes bounds a single JPEG sent to the landmark service.
const maxFrameBytes = 16 << 20

var (
	errFrameTooLarge = errors.New("frame exceeds the landmark service limit")
	errTransport     = errors.New("landmark service pipe")
)

// isTransportError reports whether err broke the stream to the service.
func isTransportError(err error) bool {
	return errors.Is(err, errTransport)
}

// writeFrame sends one JPEG as a big-endian uint32 length followed by the
// bytes.
func writeFrame(w io.Writer, jpeg []byte) error {
	if len(jpeg) > maxFrameBytes {
		return fmt.Errorf("%d bytes: %w", len(jpeg), errFrameTooLarge)
	}
	msg := make([]byte, 4, 4+len(jpeg))
	binary.BigEndian.PutUint32(msg, uint32(len(jpeg)))
	msg = append(msg, jpeg...)
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write frame: %w: %w", errTransport, err)
	}
	return nil
}

// readResult reads one JSON line answering a frame.
func readResult(r *bufio.Reader) ([]jsonDetection, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %w", errTransport, err)
	}

	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("landmark service: %s", resp.Error)
	}
	return resp.Detections, nil
}

// serviceResponse is one JSON line from the landmark service. Coordinates are
// normalized to the frame.
type serviceResponse struct {
	Detections []jsonDetection `json:"detections"`
	Error      string          `json:"error,omitempty"`
}

type jsonDetection struct {
	Keypoints []jsonPoint `json:"keypoints"`
	Label     string      `json:"label"`
	Score     float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (jd jsonDetection) toDetection() landmark.Detection {
	det := landmark.Detection{
		Keypoints: make([]landmark.Point, len(jd.Keypoints)),
		Label:     jd.Label,
		Score:     jd.Score,
	}
	for i, p := range jd.Keypoints {
		det.Keypoints[i] = landmark.Point{X: p.X, Y: p.Y, Z: p.Z}
	}
	return det
}
