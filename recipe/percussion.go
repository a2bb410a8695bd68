package recipe

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/envelope"
	"github.com/lixenwraith/vi-studio/voice"
)

var ErrUnknownSound = errors.New("unknown percussion sound")

// Sound describes one hand percussion pad
type Sound struct {
	Name       string
	Kind       core.Instrument // InstrMembrane .. InstrAtmosphere
	Frequency  float64         // Hz
	Decay      float64         // seconds
	Resonance  float64         // filter Q
	FilterFreq float64         // Hz
}

// Sounds is the hand percussion kit keyed by pad id
var Sounds = map[string]Sound{
	"conga-low":  {"Conga Low", core.InstrMembrane, 85, 1.2, 2.5, 300},
	"conga-mid":  {"Conga Mid", core.InstrMembrane, 110, 1.0, 2.2, 400},
	"conga-high": {"Conga High", core.InstrMembrane, 140, 0.8, 2.0, 500},
	"conga-slap": {"Conga Slap", core.InstrSlap, 180, 0.3, 1.5, 2000},

	"bongo-low":  {"Bongo Low", core.InstrMembrane, 200, 0.6, 3.0, 600},
	"bongo-high": {"Bongo High", core.InstrMembrane, 300, 0.5, 2.8, 800},
	"bongo-rim":  {"Bongo Rim", core.InstrMetallic, 1500, 0.2, 0.5, 3000},
	"bongo-side": {"Bongo Side", core.InstrWood, 800, 0.15, 1.0, 1200},

	"shaker":     {"Shaker", core.InstrNoise, 8000, 0.3, 0.3, 6000},
	"maracas":    {"Maracas", core.InstrNoise, 6000, 0.4, 0.4, 5000},
	"tambourine": {"Tambourine", core.InstrMetallic, 4000, 1.5, 0.8, 8000},
	"claves":     {"Claves", core.InstrWood, 2500, 0.1, 0.2, 4000},
	"woodblock":  {"Woodblock", core.InstrWood, 1800, 0.2, 0.5, 3500},
	"cowbell":    {"Cowbell", core.InstrMetallic, 800, 0.8, 2.0, 2000},
	"triangle":   {"Triangle", core.InstrMetallic, 3000, 3.0, 0.1, 10000},
	"agogo":      {"Agogo", core.InstrMetallic, 1200, 0.6, 1.5, 2500},

	"djembe-bass":  {"Djembe Bass", core.InstrMembrane, 60, 1.5, 3.5, 200},
	"djembe-tone":  {"Djembe Tone", core.InstrMembrane, 150, 1.0, 2.5, 500},
	"djembe-slap":  {"Djembe Slap", core.InstrSlap, 250, 0.4, 1.0, 3000},
	"djembe-ghost": {"Djembe Ghost", core.InstrBrush, 400, 0.2, 0.5, 1500},

	"cajon-bass":  {"Cajon Bass", core.InstrMembrane, 80, 0.8, 2.0, 250},
	"cajon-snare": {"Cajon Snare", core.InstrHandSnare, 200, 0.4, 1.5, 2000},
	"cajon-tap":   {"Cajon Tap", core.InstrWood, 1000, 0.2, 0.8, 2500},
	"cajon-brush": {"Cajon Brush", core.InstrBrush, 300, 0.3, 0.6, 1000},
}

// Ambient holds the long evolving effect pads
var Ambient = map[string]Sound{
	"rain-stick":    {"Rain Stick", core.InstrAtmosphere, 1000, 3.0, 0.2, 2000},
	"ocean-drum":    {"Ocean Drum", core.InstrAtmosphere, 100, 4.0, 0.3, 500},
	"wind-chimes":   {"Wind Chimes", core.InstrMetallic, 2000, 5.0, 0.1, 8000},
	"thunder-sheet": {"Thunder Sheet", core.InstrAtmosphere, 50, 6.0, 0.4, 200},
}

// kindDefaults is the pad a bare percussion kind plays
var kindDefaults = map[core.Instrument]string{
	core.InstrMembrane:   "conga-mid",
	core.InstrMetallic:   "cowbell",
	core.InstrWood:       "woodblock",
	core.InstrNoise:      "shaker",
	core.InstrSlap:       "conga-slap",
	core.InstrHandSnare:  "cajon-snare",
	core.InstrBrush:      "cajon-brush",
	core.InstrAtmosphere: "rain-stick",
}

// LookupSound finds a pad in the kit or the ambient set
func LookupSound(name string) (Sound, bool) {
	if s, ok := Sounds[name]; ok {
		return s, true
	}
	s, ok := Ambient[name]
	return s, ok
}

// SoundNames returns every pad id, kit and ambient, sorted
func SoundNames() []string {
	names := make([]string, 0, len(Sounds)+len(Ambient))
	for n := range Sounds {
		names = append(names, n)
	}
	for n := range Ambient {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Percussion builds the voice for a named pad
func Percussion(name string, p Params) (voice.Config, float64, error) {
	s, ok := LookupSound(name)
	if !ok {
		return voice.Config{}, 0, errors.Wrap(ErrUnknownSound, name)
	}
	cfg, freq := s.Build(p)
	return cfg, freq, nil
}

func kindRecipe(kind core.Instrument) Recipe {
	return func(p Params) (voice.Config, float64) {
		s, _ := LookupSound(kindDefaults[kind])
		return s.Build(p)
	}
}

// Build renders the pad with its kind's synthesis model
func (s Sound) Build(p Params) (voice.Config, float64) {
	freq := p.pitchOr(s.Frequency)
	l := p.Level()
	switch s.Kind {
	case core.InstrMetallic:
		return s.metallic(freq, l, p), freq
	case core.InstrWood:
		return s.wood(l), freq
	case core.InstrNoise:
		return s.noise(s.FilterFreq, s.Decay, l), freq
	case core.InstrSlap:
		cfg := s.membrane(s.Decay*0.3, l)
		cfg.Layers = append(cfg.Layers, noiseLayer(s.FilterFreq*2, s.Resonance, s.Decay*0.5, l))
		return cfg, freq
	case core.InstrHandSnare:
		cfg := s.membrane(s.Decay, l)
		cfg.Layers = append(cfg.Layers, noiseLayer(2000, s.Resonance, s.Decay*0.8, l))
		return cfg, freq
	case core.InstrBrush:
		return s.noise(s.FilterFreq*0.5, s.Decay*1.5, l), freq
	case core.InstrAtmosphere:
		return s.atmosphere(l), freq
	default:
		return s.membrane(s.Decay, l), freq
	}
}

// membrane is a sine dropping an octave through a resonant lowpass
// with a punch, body and tail contour
func (s Sound) membrane(d, l float64) voice.Config {
	body := min(0.1, d/2)
	return voice.Config{
		Layers: []voice.OscillatorSpec{{Wave: core.WaveSine, Sweep: downSweep(0.1)}},
		Filter: &voice.FilterSpec{Type: core.FilterLowpass, Cutoff: s.FilterFreq, Q: s.Resonance},
		Contour: []envelope.Segment{
			{Duration: 0.01, Target: 0.8 * l, Curve: envelope.CurveLinear},
			{Duration: body - 0.01, Target: 0.3 * l, Curve: envelope.CurveExponential},
			{Duration: d - body, Target: 0, Curve: envelope.CurveExponential},
		},
		Envelope: envelope.Spec{Release: oneShotRelease},
		Lifetime: lifetime(d),
	}
}

// metallic stacks four inharmonic squares, each ringing through its own band-pass
func (s Sound) metallic(freq, l float64, p Params) voice.Config {
	const partials = 4
	layers := make([]voice.OscillatorSpec, partials)
	for i := range layers {
		ratio := 1 + 0.7*float64(i) + p.float()*0.1
		layers[i] = voice.OscillatorSpec{
			Wave:       core.WaveSquare,
			Multiplier: ratio,
			Filter:     &voice.FilterSpec{Type: core.FilterBandpass, Cutoff: bandpassAt(freq * ratio), Q: s.Resonance},
			Envelope:   decaying(0.005, s.Decay, 0.2*l/float64(i+1)),
		}
	}
	return voice.Config{
		Layers:   layers,
		Envelope: envelope.Spec{Release: oneShotRelease},
		Lifetime: lifetime(s.Decay),
	}
}

// wood is a square struck through a narrow band-pass with a near-instant attack
func (s Sound) wood(l float64) voice.Config {
	return voice.Config{
		Layers:   []voice.OscillatorSpec{{Wave: core.WaveSquare}},
		Filter:   &voice.FilterSpec{Type: core.FilterBandpass, Cutoff: s.FilterFreq, Q: s.Resonance},
		Envelope: *decaying(0.001, s.Decay, 0.6*l),
		Lifetime: lifetime(s.Decay),
	}
}

func (s Sound) noise(cutoff, d, l float64) voice.Config {
	return voice.Config{
		Layers:   []voice.OscillatorSpec{noiseLayer(cutoff, s.Resonance, d, l)},
		Envelope: envelope.Spec{Release: oneShotRelease},
		Lifetime: lifetime(d),
	}
}

// atmosphere is three slowly rising sines swelling in and fading out
func (s Sound) atmosphere(l float64) voice.Config {
	layers := make([]voice.OscillatorSpec, 3)
	for i := range layers {
		layers[i] = voice.OscillatorSpec{
			Wave:       core.WaveSine,
			Multiplier: 1 + 0.5*float64(i),
			Weight:     1 / float64(i+1),
			Sweep:      &voice.Sweep{To: 1.2, Time: s.Decay, Curve: envelope.CurveLinear},
		}
	}
	swell := min(0.5, s.Decay*0.35)
	return voice.Config{
		Layers: layers,
		Filter: &voice.FilterSpec{Type: core.FilterLowpass, Cutoff: s.FilterFreq, Q: 1},
		Contour: []envelope.Segment{
			{Duration: swell, Target: 0.2 * l, Curve: envelope.CurveLinear},
			{Duration: s.Decay*0.7 - swell, Target: 0.06 * l, Curve: envelope.CurveLinear},
			{Duration: s.Decay * 0.3, Target: 0, Curve: envelope.CurveExponential},
		},
		Envelope: envelope.Spec{Release: oneShotRelease},
		Lifetime: lifetime(s.Decay),
	}
}

// noiseLayer is a band-passed noise burst with its own envelope
func noiseLayer(cutoff, q, d, l float64) voice.OscillatorSpec {
	return voice.OscillatorSpec{
		Wave:          core.WaveNoise,
		NoiseDuration: d,
		Filter:        &voice.FilterSpec{Type: core.FilterBandpass, Cutoff: bandpassAt(cutoff), Q: q},
		Envelope:      decaying(0.01, d, 0.4*l),
	}
}

// decaying rises to peak over attack then falls to silence by d
func decaying(attack, d, peak float64) *envelope.Spec {
	attack = min(attack, d)
	return &envelope.Spec{Attack: attack, Decay: d - attack, Release: oneShotRelease, Peak: peak}
}

func bandpassAt(f float64) float64 {
	return lowpassAbove(f, 1)
}
