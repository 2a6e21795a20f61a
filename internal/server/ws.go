package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/posesketch/internal/event"
	"github.com/ayusman/posesketch/internal/render"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	broadcastInterval = 66 * time.Millisecond // ~15 FPS
	writeTimeout      = time.Second
)

// SignalMessage is pushed to every websocket client.
type SignalMessage struct {
	Oscillator render.OscillatorState `json:"oscillator"`
	Sketch     any                    `json:"sketch,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// SignalHub is the oscillator of the hand sketch as seen from the browser.
// It keeps the oscillator parameters and broadcasts them, together with the
// latest sketch state, to all websocket clients; the page plays the tone.
type SignalHub struct {
	*render.StateOscillator

	source  func() any
	clients map[string]*websocket.Conn
	mu      sync.RWMutex
	log     *logrus.Entry
}

// NewSignalHub creates a hub. source, if set, supplies the sketch state sent
// with every message.
func NewSignalHub(source func() any) *SignalHub {
	return &SignalHub{
		StateOscillator: render.NewStateOscillator(),
		source:          source,
		clients:         make(map[string]*websocket.Conn),
		log:             event.For("ws"),
	}
}

// SetSource replaces the sketch state source.
func (h *SignalHub) SetSource(source func() any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = source
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SignalHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade")
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	log := h.log.WithField("client", id)

	// send the current state straight away
	msg, err := h.message()
	if err != nil {
		log.WithError(err).Warn("encode signal message")
		return
	}
	if err := h.send(conn, msg); err != nil {
		log.WithError(err).Debug("initial write")
		return
	}

	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	log.Debug("client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
		log.Debug("client disconnected")
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *SignalHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run broadcasts to all clients until ctx is done.
func (h *SignalHub) Run(ctx context.Context) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast()
		}
	}
}

// Broadcast sends the current state to every client once.
func (h *SignalHub) Broadcast() {
	if h.Clients() == 0 {
		return
	}

	msg, err := h.message()
	if err != nil {
		h.log.WithError(err).Warn("encode signal message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, conn := range h.clients {
		if err := h.send(conn, msg); err != nil {
			h.log.WithError(err).WithField("client", id).Debug("write")
		}
	}
}

func (h *SignalHub) message() ([]byte, error) {
	h.mu.RLock()
	source := h.source
	h.mu.RUnlock()

	m := SignalMessage{
		Oscillator: h.State(),
		Timestamp:  time.Now().UnixMilli(),
	}
	if source != nil {
		m.Sketch = source()
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal signal message: %w", err)
	}
	return data, nil
}

func (h *SignalHub) send(conn *websocket.Conn, msg []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, msg)
}
