// Package server provides the HTTP server for the posesketch sketches.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ayusman/posesketch/internal/app"
	"github.com/ayusman/posesketch/internal/event"
	"github.com/ayusman/posesketch/internal/server/api"
)

// Sketch is the running sketch the server exposes. *app.App implements it.
type Sketch interface {
	FrameSource
	api.Tunable
	api.SessionLister
	Mode() string
	State() app.State
	ToggleKeypoints() (bool, error)
	StartSound() error
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Sketch    Sketch
	Hub       *SignalHub
}

// Server represents the HTTP server for the posesketch application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Sketch != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/keypoints/toggle", s.handleToggleKeypoints)
		s.mux.HandleFunc("/api/sound/start", s.handleStartSound)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Sketch))
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Sketch))
		s.mux.Handle("/api/sessions", api.NewSessionsHandler(s.config.Sketch))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/signals", s.config.Hub)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		event.For("http").WithError(err).Debug("encode response")
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Sketch != nil {
		response["mode"] = s.config.Sketch.Mode()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleState handles GET /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.Sketch.State())
}

// handleToggleKeypoints handles POST /api/keypoints/toggle in face mode.
func (s *Server) handleToggleKeypoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	show, err := s.config.Sketch.ToggleKeypoints()
	if errors.Is(err, app.ErrWrongMode) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "keypoints can only be toggled in face mode"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"show_keypoints": show})
}

// handleStartSound handles POST /api/sound/start in hand mode.
func (s *Server) handleStartSound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.config.Sketch.StartSound(); errors.Is(err, app.ErrWrongMode) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "sound is only available in hand mode"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"started": true})
}

// Serve runs the server on addr until ctx is done, then shuts it down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		// streams end with ctx
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
