package recipe

import (
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/envelope"
	"github.com/lixenwraith/vi-studio/voice"
)

const (
	pluckTail = 2.0

	clickAccent = 800.0
	clickBeat   = 600.0
)

// Pluck is a picked string: sawtooth fundamental with two softer harmonics
// Higher string indexes open the lowpass further
func Pluck(p Params) (voice.Config, float64) {
	v := p.Level()
	return voice.Config{
		Layers: []voice.OscillatorSpec{
			{Wave: core.WaveSawtooth},
			{Wave: core.WaveTriangle, Multiplier: 2, Weight: 0.3},
			{Wave: core.WaveSine, Multiplier: 3, Weight: 0.1},
		},
		Filter: &voice.FilterSpec{
			Type:   core.FilterLowpass,
			Cutoff: 2000 + 400*float64(max(p.Index, 0)),
			Q:      2,
		},
		// pick transient, body, ring, tail
		Contour: []envelope.Segment{
			{Duration: 0.005, Target: 1.2 * v, Curve: envelope.CurveLinear},
			{Duration: 0.045, Target: 0.8 * v, Curve: envelope.CurveExponential},
			{Duration: 0.25, Target: 0.4 * v, Curve: envelope.CurveExponential},
			{Duration: pluckTail - 0.3, Target: 0.01, Curve: envelope.CurveExponential},
		},
		Envelope: envelope.Spec{Release: 0.1},
		Lifetime: pluckTail,
	}, p.Pitch
}

// Piano is a triangle fundamental with faint second and third sine harmonics
func Piano(p Params) (voice.Config, float64) {
	return voice.Config{
		Layers: []voice.OscillatorSpec{
			{Wave: core.WaveTriangle},
			{Wave: core.WaveSine, Multiplier: 2, Weight: 0.1},
			{Wave: core.WaveSine, Multiplier: 3, Weight: 0.05},
		},
		Envelope: envelope.Spec{Attack: 0.01, Decay: 0.3, Sustain: 0.3, Release: 1.0, Peak: 0.4 * p.Level()},
	}, p.Pitch
}

// Click is the metronome tick, higher on the first beat of a bar
func Click(p Params) (voice.Config, float64) {
	def := clickBeat
	if p.Index == 0 {
		def = clickAccent
	}
	return voice.Config{
		Layers:   []voice.OscillatorSpec{{Wave: core.WaveSquare}},
		Envelope: envelope.Spec{Attack: 0.01, Decay: 0.05, Sustain: 0.1, Release: 0.1, Peak: 0.3 * p.Level()},
		Lifetime: 0.1,
	}, p.pitchOr(def)
}
