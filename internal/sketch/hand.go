package sketch

import (
	"image"
	"sync"

	"github.com/ayusman/posesketch/internal/config"
	"github.com/ayusman/posesketch/internal/hand"
	"github.com/ayusman/posesketch/internal/landmark"
	"github.com/ayusman/posesketch/internal/latest"
	"github.com/ayusman/posesketch/internal/render"
)

// HandState is what the hand sketch reports after each frame.
type HandState struct {
	Hands  int                    `json:"hands"`
	Signal hand.Signal            `json:"signal"`
	Output render.OscillatorState `json:"output"`
}

// Hand turns the first hand into a tone on an oscillator.
type Hand struct {
	mu      sync.RWMutex
	mapping hand.MappingConfig
	osc     render.Oscillator

	state latest.Cell[HandState]
}

// NewHand returns a hand sketch driving osc.
func NewHand(t config.Tuning, osc render.Oscillator) *Hand {
	h := &Hand{mapping: t.Mapping, osc: osc}
	h.state.Store(HandState{Signal: t.Mapping.Silence()})
	return h
}

// Apply maps dets to a signal and sends it to the oscillator. Without hands
// only the amplitude drops to zero; the last frequency is held.
func (h *Hand) Apply(dets []landmark.Detection, frameHeight int) hand.Signal {
	h.mu.RLock()
	mapping := h.mapping
	h.mu.RUnlock()

	sig := hand.SignalFor(dets, float64(frameHeight), mapping)
	if len(dets) > 0 && len(dets[0].Keypoints) > 0 {
		h.osc.SetFrequency(sig.Frequency)
	}
	h.osc.SetAmplitude(sig.Amplitude)
	return sig
}

// Frame draws every hand keypoint and updates the tone from the first hand.
func (h *Hand) Frame(c render.Canvas, dets []landmark.Detection) {
	for _, d := range dets {
		for _, p := range d.Keypoints {
			c.Circle(image.Pt(int(p.X), int(p.Y)), keypointSize, render.Green)
		}
	}

	sig := h.Apply(dets, c.Bounds().Dy())
	h.state.Store(HandState{Hands: len(dets), Signal: sig, Output: h.output()})
}

// StartSound starts the oscillator. Calling it again has no effect.
func (h *Hand) StartSound() {
	if !h.osc.Started() {
		h.osc.Start()
	}
}

// output reads back what the oscillator plays, when it exposes it.
func (h *Hand) output() render.OscillatorState {
	if s, ok := h.osc.(interface{ State() render.OscillatorState }); ok {
		return s.State()
	}
	return render.OscillatorState{Started: h.osc.Started()}
}

// SetTuning swaps the signal mapping from the next frame.
func (h *Hand) SetTuning(t config.Tuning) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mapping = t.Mapping
}

// State returns the HandState of the last drawn frame.
func (h *Hand) State() any {
	s, _ := h.state.Load()
	return s
}

// Close is a no-op; the oscillator belongs to the caller.
func (h *Hand) Close() {}
