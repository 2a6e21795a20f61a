// Package event provides the shared logger.
package event

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the application logger. It writes to stderr until Setup is called.
var Log = logrus.New()

// Fields is an alias so callers don't need to import logrus.
type Fields = logrus.Fields

var setupOnce sync.Once

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	// File enables a rotated log file in addition to stderr.
	File   string `yaml:"file" json:"file"`
	Colors bool   `yaml:"colors" json:"colors"`
}

// Setup configures Log once. Later calls are ignored.
func Setup(cfg LogConfig) error {
	var err error
	setupOnce.Do(func() {
		level := logrus.InfoLevel
		if cfg.Level != "" {
			level, err = logrus.ParseLevel(cfg.Level)
			if err != nil {
				err = fmt.Errorf("parse log level: %w", err)
				return
			}
		}
		Log.SetLevel(level)

		Log.SetFormatter(&formatter.Formatter{
			NoColors:        !cfg.Colors,
			TimestampFormat: "15:04:05.000",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
			},
		})
		Log.SetReportCaller(level >= logrus.DebugLevel)

		writers := []io.Writer{os.Stderr}
		if cfg.File != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.File,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    20,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}
		Log.SetOutput(io.MultiWriter(writers...))
	})
	return err
}

// For returns an entry tagged with a component name.
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}
