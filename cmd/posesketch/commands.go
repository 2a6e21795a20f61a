package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli"

	"github.com/ayusman/posesketch/internal/app"
	"github.com/ayusman/posesketch/internal/config"
	"github.com/ayusman/posesketch/internal/event"
	"github.com/ayusman/posesketch/internal/render"
	"github.com/ayusman/posesketch/internal/server"
	"github.com/ayusman/posesketch/internal/store"
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config, c",
		Usage:  "YAML config `FILE`",
		Value:  "posesketch.yml",
		EnvVar: "POSESKETCH_CONFIG",
	},
	cli.StringFlag{
		Name:   "addr",
		Usage:  "HTTP listen address",
		EnvVar: "POSESKETCH_ADDR",
	},
	cli.StringFlag{
		Name:   "data-dir",
		Usage:  "directory for the settings database",
		EnvVar: "POSESKETCH_DATA_DIR",
	},
	cli.StringFlag{
		Name:   "web-dir",
		Usage:  "directory of static files to serve",
		EnvVar: "POSESKETCH_WEB_DIR",
	},
	cli.StringFlag{
		Name:   "log-level",
		Usage:  "trace, debug, info, warn or error",
		EnvVar: "POSESKETCH_LOG_LEVEL",
	},
	cli.IntFlag{
		Name:   "camera",
		Usage:  "capture device `ID`",
		Value:  -1,
		EnvVar: "POSESKETCH_CAMERA",
	},
	cli.BoolFlag{
		Name:   "mock",
		Usage:  "use canned landmarks instead of the MediaPipe service",
		EnvVar: "POSESKETCH_MOCK",
	},
	cli.BoolFlag{
		Name:   "flipped",
		Usage:  "mirror the preview and the landmarks",
		EnvVar: "POSESKETCH_FLIPPED",
	},
}

// FaceCommand runs the face emoji sketch.
var FaceCommand = cli.Command{
	Name:  "face",
	Usage: "Overlay an emoji on every face according to its mouth",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "max-faces",
			Usage: "faces to track (default 1)",
		},
		cli.BoolFlag{
			Name:  "refine",
			Usage: "refine landmarks around the eyes and lips",
		},
		cli.BoolFlag{
			Name:  "keypoints",
			Usage: "draw the face keypoints from the start",
		},
	},
	Action: faceAction,
}

// HandCommand runs the hand theremin sketch.
var HandCommand = cli.Command{
	Name:  "hand",
	Usage: "Play a tone whose pitch and volume follow the first hand",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "max-hands",
			Usage: "hands to track, default 2; only the first one plays",
		},
	},
	Action: handAction,
}

func faceAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx, config.ModeFace)
	if err != nil {
		return err
	}
	applyFaceFlags(ctx, cfg)
	return run(ctx, cfg)
}

func handAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx, config.ModeHand)
	if err != nil {
		return err
	}
	applyHandFlags(ctx, cfg)
	return run(ctx, cfg)
}

// applyFaceFlags overrides the config file only with flags given explicitly.
func applyFaceFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet("max-faces") {
		cfg.Detector.MaxSubjects = ctx.Int("max-faces")
	}
	if ctx.Bool("refine") {
		cfg.Detector.RefineLandmarks = true
	}
	if ctx.Bool("keypoints") {
		cfg.Face.ShowKeypoints = true
	}
}

func applyHandFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet("max-hands") {
		cfg.Detector.MaxSubjects = ctx.Int("max-hands")
	}
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig(ctx *cli.Context, mode string) (*config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode

	if v := ctx.GlobalString("addr"); v != "" {
		cfg.Addr = v
	}
	if v := ctx.GlobalString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := ctx.GlobalString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := ctx.GlobalInt("camera"); v >= 0 {
		cfg.Camera.DeviceID = v
	}
	if ctx.GlobalBool("mock") {
		cfg.Detector.Mock = true
	}
	if ctx.GlobalBool("flipped") {
		cfg.Detector.Flipped = true
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".posesketch")
	}

	return cfg, nil
}

// run starts the sketch and the HTTP server and blocks until SIGINT/SIGTERM.
func run(ctx *cli.Context, cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := event.Setup(cfg.Log); err != nil {
		return err
	}
	log := event.For("main")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	hub := server.NewSignalHub(nil)

	opts := app.Options{Config: cfg, Store: st}
	if cfg.Mode == config.ModeHand {
		opts.Oscillator = hub
	}
	sketch, err := app.New(opts)
	if err != nil {
		return err
	}
	hub.SetSource(func() any { return sketch.State().Sketch })

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sketch.Start(runCtx); err != nil {
		sketch.Stop()
		return fmt.Errorf("start %s sketch: %w", cfg.Mode, err)
	}
	defer sketch.Stop()

	go hub.Run(runCtx)

	webDir := ctx.GlobalString("web-dir")
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.WithField("dir", webDir).Info("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Sketch:    sketch,
		Hub:       hub,
	})

	log.WithFields(event.Fields{"addr": cfg.Addr, "mode": cfg.Mode}).Info("starting server")
	return srv.Serve(runCtx, cfg.Addr)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <data dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// the hub must satisfy the oscillator boundary of the hand sketch
var _ render.Oscillator = (*server.SignalHub)(nil)
