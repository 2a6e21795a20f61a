package render

import (
	"math"
	"sync"
)

// Oscillator is the audio actuator. Amplitude is 0..1. Start is idempotent;
// until it is called the oscillator stays silent whatever its amplitude.
type Oscillator interface {
	SetFrequency(hz float64)
	SetAmplitude(amp float64)
	Start()
	Started() bool
}

// OscillatorState is a snapshot of an oscillator's parameters.
type OscillatorState struct {
	Frequency float64 `json:"frequency"`
	Amplitude float64 `json:"amplitude"`
	Started   bool    `json:"started"`
}

// StateOscillator keeps oscillator parameters in memory. It starts as a
// silent 440 Hz sine. Outputs embed it and publish State.
type StateOscillator struct {
	mu    sync.RWMutex
	state OscillatorState
}

// NewStateOscillator returns a silent, stopped oscillator at 440 Hz.
func NewStateOscillator() *StateOscillator {
	return &StateOscillator{state: OscillatorState{Frequency: 440}}
}

// SetFrequency sets the pitch in Hz. Non-finite values are ignored.
func (o *StateOscillator) SetFrequency(hz float64) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Frequency = hz
}

// SetAmplitude sets the volume, clamped to 0..1. NaN is silence.
func (o *StateOscillator) SetAmplitude(amp float64) {
	if math.IsNaN(amp) {
		amp = 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Amplitude = min(max(amp, 0), 1)
}

// Start unmutes the oscillator.
func (o *StateOscillator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Started = true
}

// Started reports whether Start was called.
func (o *StateOscillator) Started() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Started
}

// State returns the current parameters.
func (o *StateOscillator) State() OscillatorState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}
