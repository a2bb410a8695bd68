package recipe

import (
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/envelope"
	"github.com/lixenwraith/vi-studio/voice"
)

// Drum kit default pitches (Hz) and decays (s)
const (
	kickPitch  = 60.0
	kickDecay  = 0.5
	snarePitch = 200.0
	snareDecay = 0.2
	hatPitch   = 8000.0
	closedHat  = 0.1
	openHat    = 0.3
	crashPitch = 3000.0
	crashDecay = 2.0
	ridePitch  = 2500.0
	rideDecay  = 1.0

	cymbalPartials = 6

	// oneShotRelease cuts a one-shot short when it is stopped early
	oneShotRelease = 0.05
)

// lifetime bounds a one-shot to its envelope plus the stop guard
func lifetime(d float64) float64 {
	return d + constant.StopGuard.Seconds()
}

func downSweep(time float64) *voice.Sweep {
	return &voice.Sweep{To: 0.5, Time: time, Curve: envelope.CurveExponential}
}

// Kick is a sine body sweeping down an octave plus a short square click
func Kick(p Params) (voice.Config, float64) {
	l := p.Level()
	return voice.Config{
		Layers: []voice.OscillatorSpec{
			{Wave: core.WaveSine, Sweep: downSweep(0.1)},
			{
				Wave:     core.WaveSquare,
				Fixed:    1000,
				Filter:   &voice.FilterSpec{Type: core.FilterHighpass, Cutoff: 800, Q: 1},
				Envelope: &envelope.Spec{Attack: 0.001, Decay: 0.009, Release: oneShotRelease, Peak: 0.3 * l},
			},
		},
		Filter:   &voice.FilterSpec{Type: core.FilterLowpass, Cutoff: 100, Q: 1},
		Envelope: envelope.Spec{Attack: 0.01, Decay: kickDecay - 0.01, Release: oneShotRelease, Peak: 0.8 * l},
		Lifetime: lifetime(kickDecay),
	}, p.pitchOr(kickPitch)
}

// Snare is a falling triangle tone over a band-passed noise burst
func Snare(p Params) (voice.Config, float64) {
	l := p.Level()
	return voice.Config{
		Layers: []voice.OscillatorSpec{
			{Wave: core.WaveTriangle, Sweep: downSweep(0.1)},
			{
				Wave:          core.WaveNoise,
				NoiseDuration: snareDecay,
				Filter:        &voice.FilterSpec{Type: core.FilterBandpass, Cutoff: 2000, Q: 5},
				Envelope:      &envelope.Spec{Attack: 0.005, Decay: 0.145, Release: oneShotRelease, Peak: 0.6 * l},
			},
		},
		Envelope: envelope.Spec{Attack: 0.01, Decay: snareDecay - 0.01, Release: oneShotRelease, Peak: 0.4 * l},
		Lifetime: lifetime(snareDecay),
	}, p.pitchOr(snarePitch)
}

// ClosedHihat is a short band of high noise
func ClosedHihat(p Params) (voice.Config, float64) {
	return hihat(p, closedHat, 0.3)
}

// OpenHihat rings three times longer than the closed hat
func OpenHihat(p Params) (voice.Config, float64) {
	return hihat(p, openHat, 0.5)
}

func hihat(p Params, d, amp float64) (voice.Config, float64) {
	return voice.Config{
		Layers: []voice.OscillatorSpec{{
			Wave:          core.WaveNoise,
			NoiseDuration: d,
			Filter:        &voice.FilterSpec{Type: core.FilterHighpass, Cutoff: 8000, Q: 1},
		}},
		Filter:   &voice.FilterSpec{Type: core.FilterLowpass, Cutoff: 12000, Q: 1},
		Envelope: envelope.Spec{Attack: 0.001, Decay: d - 0.001, Release: oneShotRelease, Peak: amp * p.Level()},
		Lifetime: lifetime(d),
	}, p.pitchOr(hatPitch)
}

// Crash is six inharmonic band-passed squares with a long tail
func Crash(p Params) (voice.Config, float64) {
	return cymbal(p, crashPitch, crashDecay)
}

// Ride is the shorter, lower cymbal
func Ride(p Params) (voice.Config, float64) {
	return cymbal(p, ridePitch, rideDecay)
}

// cymbal partials sit at base·(1+0.37i+jitter), quieter with index
// Each partial has its own band-pass and envelope, so all layers feed the bus directly
func cymbal(p Params, base, d float64) (voice.Config, float64) {
	l := p.Level()
	freq := p.pitchOr(base)
	layers := make([]voice.OscillatorSpec, cymbalPartials)
	for i := range layers {
		ratio := 1 + 0.37*float64(i) + p.float()*0.1
		layers[i] = voice.OscillatorSpec{
			Wave:       core.WaveSquare,
			Multiplier: ratio,
			Filter:     &voice.FilterSpec{Type: core.FilterBandpass, Cutoff: freq * ratio, Q: 0.5},
			Envelope: &envelope.Spec{
				Attack:  0.01,
				Decay:   d - 0.01,
				Release: oneShotRelease,
				Peak:    0.1 * l / float64(i+1),
			},
		}
	}
	return voice.Config{
		Layers:   layers,
		Envelope: envelope.Spec{Release: oneShotRelease},
		Lifetime: lifetime(d),
	}, freq
}

// Tom1 is the high tom
func Tom1(p Params) (voice.Config, float64) {
	return tom(p, 220, 0.4)
}

// Tom2 is the mid tom
func Tom2(p Params) (voice.Config, float64) {
	return tom(p, 180, 0.5)
}

// Tom3 is the floor tom
func Tom3(p Params) (voice.Config, float64) {
	return tom(p, 120, 0.6)
}

func tom(p Params, def, d float64) (voice.Config, float64) {
	freq := p.pitchOr(def)
	return voice.Config{
		Layers:   []voice.OscillatorSpec{{Wave: core.WaveSine, Sweep: downSweep(0.1)}},
		Filter:   &voice.FilterSpec{Type: core.FilterLowpass, Cutoff: lowpassAbove(freq, 3), Q: 1.5},
		Envelope: envelope.Spec{Attack: 0.01, Decay: d - 0.01, Release: oneShotRelease, Peak: 0.6 * p.Level()},
		Lifetime: lifetime(d),
	}, freq
}

// lowpassAbove places a cutoff at k times freq, kept inside the audible range
// Non-positive pitches keep a valid filter so the engine reports the pitch instead
func lowpassAbove(freq, k float64) float64 {
	c := freq * k
	if !(c >= constant.MinCutoff) {
		return constant.MinCutoff
	}
	return min(c, constant.MaxCutoff)
}
