package recipe

import (
	"math"
	"sort"

	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/envelope"
	"github.com/lixenwraith/vi-studio/voice"
)

// SynthOsc is one of the two synth oscillators
type SynthOsc struct {
	Wave   core.Waveform `json:"wave"`
	Octave int           `json:"octave"`
	Detune float64       `json:"detune"` // cents
	Level  float64       `json:"level"`  // 0-100
}

// SynthFilter is the shared voice filter; Envelope is the cutoff modulation depth 0-100
type SynthFilter struct {
	Type      core.FilterType `json:"type"`
	Cutoff    float64         `json:"cutoff"`
	Resonance float64         `json:"resonance"`
	Envelope  float64         `json:"envelope"`
}

// ADSR is an envelope shape without a level
type ADSR struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// Preset is a complete synth patch
type Preset struct {
	Name      string      `json:"name"`
	Osc       [2]SynthOsc `json:"osc"`
	Filter    SynthFilter `json:"filter"`
	AmpEnv    ADSR        `json:"ampEnvelope"`
	FilterEnv ADSR        `json:"filterEnvelope"`
}

var DefaultPreset = Preset{
	Name: "default",
	Osc: [2]SynthOsc{
		{Wave: core.WaveSquare, Level: 80},
		{Wave: core.WaveSawtooth, Octave: -1, Detune: 7, Level: 60},
	},
	Filter:    SynthFilter{Type: core.FilterLowpass, Cutoff: 2000, Resonance: 1, Envelope: 50},
	AmpEnv:    ADSR{Attack: 0.1, Decay: 0.3, Sustain: 0.7, Release: 0.5},
	FilterEnv: ADSR{Attack: 0.2, Decay: 0.8, Sustain: 0.3, Release: 1.0},
}

var presets = map[string]Preset{
	"default": DefaultPreset,
	"lead": {
		Name: "lead",
		Osc: [2]SynthOsc{
			{Wave: core.WaveSawtooth, Level: 80},
			{Wave: core.WaveSquare, Detune: 7, Level: 40},
		},
		Filter:    SynthFilter{Type: core.FilterLowpass, Cutoff: 3000, Resonance: 8, Envelope: 70},
		AmpEnv:    ADSR{Attack: 0.05, Decay: 0.2, Sustain: 0.6, Release: 0.3},
		FilterEnv: ADSR{Attack: 0.1, Decay: 0.5, Sustain: 0.3, Release: 0.8},
	},
	"pad": {
		Name: "pad",
		Osc: [2]SynthOsc{
			{Wave: core.WaveTriangle, Level: 60},
			{Wave: core.WaveSine, Octave: -1, Detune: -7, Level: 50},
		},
		Filter:    SynthFilter{Type: core.FilterLowpass, Cutoff: 1200, Resonance: 2, Envelope: 30},
		AmpEnv:    ADSR{Attack: 0.8, Decay: 0.5, Sustain: 0.8, Release: 1.5},
		FilterEnv: ADSR{Attack: 1.0, Decay: 1.0, Sustain: 0.7, Release: 2.0},
	},
	"bass": {
		Name: "bass",
		Osc: [2]SynthOsc{
			{Wave: core.WaveSquare, Octave: -2, Level: 90},
			{Wave: core.WaveTriangle, Octave: -1, Level: 30},
		},
		Filter:    SynthFilter{Type: core.FilterLowpass, Cutoff: 800, Resonance: 5, Envelope: 40},
		AmpEnv:    ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.9, Release: 0.2},
		FilterEnv: ADSR{Attack: 0.05, Decay: 0.2, Sustain: 0.4, Release: 0.3},
	},
}

// LookupPreset returns a preset by name
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// PresetNames returns the preset names sorted
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ratio is the oscillator frequency relative to the played note
func (o SynthOsc) Ratio() float64 {
	return math.Pow(2, float64(o.Octave)) * (1 + o.Detune/1200)
}

// Synth builds a two-oscillator subtractive voice from pr
// Silent oscillators are left out of the graph
func Synth(pr Preset, p Params) (voice.Config, float64) {
	var layers []voice.OscillatorSpec
	for _, o := range pr.Osc {
		if !(o.Level > 0) {
			continue
		}
		layers = append(layers, voice.OscillatorSpec{
			Wave:       o.Wave,
			Multiplier: o.Ratio(),
			Weight:     o.Level / 100,
		})
	}
	a, f := pr.AmpEnv, pr.FilterEnv
	return voice.Config{
		Layers: layers,
		Filter: &voice.FilterSpec{
			Type:   pr.Filter.Type,
			Cutoff: pr.Filter.Cutoff,
			Q:      pr.Filter.Resonance,
			Envelope: &envelope.Cutoff{
				Attack:  f.Attack,
				Decay:   f.Decay,
				Sustain: f.Sustain,
				Release: f.Release,
				Amount:  pr.Filter.Envelope / 100,
			},
		},
		Envelope: envelope.Spec{
			Attack:  a.Attack,
			Decay:   a.Decay,
			Sustain: a.Sustain,
			Release: a.Release,
			Peak:    p.Level(),
		},
	}, p.Pitch
}
