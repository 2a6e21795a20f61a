// Package config loads and validates the posesketch configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/ayusman/posesketch/internal/event"
	"github.com/ayusman/posesketch/internal/face"
	"github.com/ayusman/posesketch/internal/hand"
)

// Sketch modes.
const (
	ModeFace = "face"
	ModeHand = "hand"
)

// Config is the root configuration.
type Config struct {
	Mode    string          `yaml:"mode" validate:"oneof=face hand"`
	Addr    string          `yaml:"addr" validate:"required"`
	DataDir string          `yaml:"data_dir"`
	Log     event.LogConfig `yaml:"log"`

	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Face     FaceConfig     `yaml:"face"`
	Tuning   Tuning         `yaml:"tuning"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	DeviceID int `yaml:"device_id" validate:"gte=0"`
	Width    int `yaml:"width" validate:"gt=0"`
	Height   int `yaml:"height" validate:"gt=0"`
	// File replays a video file in a loop instead of opening DeviceID.
	File string `yaml:"file"`
}

// DetectorConfig holds landmark provider options.
type DetectorConfig struct {
	// MaxSubjects of 0 picks the mode's default: one face, two hands.
	MaxSubjects     int     `yaml:"max_subjects" validate:"omitempty,gte=1,lte=4"`
	RefineLandmarks bool    `yaml:"refine_landmarks"`
	Flipped         bool    `yaml:"flipped"`
	MinConfidence   float64 `yaml:"min_confidence" validate:"gte=0,lte=1"`
	// Mock forces the in-process mock provider.
	Mock bool `yaml:"mock"`
}

// PipelineConfig sets the loop cadences.
type PipelineConfig struct {
	RenderFPS       int           `yaml:"render_fps" validate:"gt=0,lte=120"`
	IdleFPS         int           `yaml:"idle_fps" validate:"gt=0"`
	ActiveFPS       int           `yaml:"active_fps" validate:"gtefield=IdleFPS"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gte=0"`
	MotionThreshold float64       `yaml:"motion_threshold" validate:"gte=0"`
}

// FaceConfig holds face sketch assets and toggles.
type FaceConfig struct {
	SmileImage    string `yaml:"smile_image"`
	ShockImage    string `yaml:"shock_image"`
	ShowKeypoints bool   `yaml:"show_keypoints"`
}

// Tuning is the runtime-adjustable part of the configuration. It is persisted
// by the store and can be replaced while the sketch runs.
type Tuning struct {
	Thresholds face.Thresholds    `yaml:"thresholds" json:"thresholds"`
	Box        face.BoxConfig     `yaml:"box" json:"box"`
	Mapping    hand.MappingConfig `yaml:"mapping" json:"mapping"`
}

// DefaultTuning returns the tuning the sketches were designed with.
func DefaultTuning() Tuning {
	return Tuning{
		Thresholds: face.DefaultThresholds(),
		Box:        face.DefaultBoxConfig(),
		Mapping:    hand.DefaultMappingConfig(),
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Mode: ModeFace,
		Addr: ":8080",
		Log:  event.LogConfig{Level: "info"},
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    640,
			Height:   480,
		},
		Detector: DetectorConfig{
			MinConfidence: 0.5,
		},
		Pipeline: PipelineConfig{
			RenderFPS:       30,
			IdleFPS:         5,
			ActiveFPS:       15,
			IdleTimeout:     2 * time.Second,
			MotionThreshold: 1.0,
		},
		Face: FaceConfig{
			SmileImage: "assets/smile.png",
			ShockImage: "assets/shock.png",
		},
		Tuning: DefaultTuning(),
	}
}

var validate = validator.New()

// Validate checks c against its field constraints.
func Validate(c *Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateTuning checks a tuning update on its own.
func ValidateTuning(t *Tuning) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}
	return nil
}

// Load reads a YAML file on top of the defaults. Fields missing from the file
// keep their default values. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DatabasePath returns the SQLite path inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "posesketch.db")
}
