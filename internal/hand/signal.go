package hand

import (
	"math"

	"github.com/ayusman/posesketch/internal/landmark"
)

// Signal is the oscillator control output for one frame.
type Signal struct {
	Frequency float64 `json:"frequency"` // Hz
	Amplitude float64 `json:"amplitude"` // 0..1
}

// MappingConfig holds the input domains and output ranges of Map. Ranges may
// be inverted (Lo > Hi).
type MappingConfig struct {
	// DistanceLo/Hi is the AvgDistance domain, in pixels.
	DistanceLo float64 `yaml:"distance_lo" json:"distance_lo"`
	DistanceHi float64 `yaml:"distance_hi" json:"distance_hi" validate:"nefield=DistanceLo"`
	// AmplitudeLo/Hi is the amplitude range DistanceLo/Hi map onto.
	AmplitudeLo float64 `yaml:"amplitude_lo" json:"amplitude_lo" validate:"gte=0,lte=1"`
	AmplitudeHi float64 `yaml:"amplitude_hi" json:"amplitude_hi" validate:"gte=0,lte=1"`
	// FrequencyLo is produced at the bottom of the frame, FrequencyHi at the top.
	FrequencyLo float64 `yaml:"frequency_lo" json:"frequency_lo" validate:"gt=0"`
	FrequencyHi float64 `yaml:"frequency_hi" json:"frequency_hi" validate:"gt=0"`
	// BaseFrequency is reported while silent.
	BaseFrequency float64 `yaml:"base_frequency" json:"base_frequency" validate:"gt=0"`
}

// DefaultMappingConfig returns the mapping used by the hand sketch: a closed
// fist is loud, an open hand is quiet, higher on screen is higher pitch.
func DefaultMappingConfig() MappingConfig {
	return MappingConfig{
		DistanceLo:    50,
		DistanceHi:    200,
		AmplitudeLo:   0.5,
		AmplitudeHi:   0,
		FrequencyLo:   100,
		FrequencyHi:   1000,
		BaseFrequency: 440,
	}
}

// Silence returns the idle signal.
func (c MappingConfig) Silence() Signal {
	return Signal{Frequency: c.BaseFrequency, Amplitude: 0}
}

// Map converts hand features into a signal. frameHeight is the source frame
// height in pixels; Y grows downwards.
func Map(f Features, frameHeight float64, c MappingConfig) Signal {
	return Signal{
		Frequency: LinearMap(f.AvgY, frameHeight, 0, c.FrequencyLo, c.FrequencyHi, true),
		Amplitude: LinearMap(f.AvgDistance, c.DistanceLo, c.DistanceHi, c.AmplitudeLo, c.AmplitudeHi, true),
	}
}

// SignalFor maps the first hand of a frame. A frame without hands, or whose
// first hand has no usable keypoints, is silent. There is no smoothing across frames.
func SignalFor(hands []landmark.Detection, frameHeight float64, c MappingConfig) Signal {
	if len(hands) == 0 {
		return c.Silence()
	}
	f, err := Extract(hands[0].Keypoints)
	if err != nil {
		return c.Silence()
	}
	return Map(f, frameHeight, c)
}

// LinearMap re-maps v from [inLo, inHi] to [outLo, outHi]. With clamp set the
// result is constrained to the output range and a NaN input maps to outLo. A
// zero-width input range maps to outLo.
func LinearMap(v, inLo, inHi, outLo, outHi float64, clamp bool) float64 {
	if inHi == inLo {
		return outLo
	}
	out := outLo + (v-inLo)/(inHi-inLo)*(outHi-outLo)
	if !clamp {
		return out
	}
	if math.IsNaN(out) {
		return outLo
	}
	lo, hi := outLo, outHi
	if lo > hi {
		lo, hi = hi, lo
	}
	return min(max(out, lo), hi)
}
