package voice

import (
	"math"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/envelope"
)

var ErrInvalidConfig = errors.New("invalid voice config")

// Sweep glides a layer's frequency from its start pitch to To times that pitch over Time seconds
type Sweep struct {
	To    float64
	Time  float64
	Curve envelope.Curve
}

// FilterSpec configures a biquad stage
type FilterSpec struct {
	Type     core.FilterType
	Cutoff   float64 // Hz
	Q        float64
	Gain     float64 // dB, peaking and shelf types
	Envelope *envelope.Cutoff
}

// OscillatorSpec is one sound layer of a voice
type OscillatorSpec struct {
	Wave       core.Waveform
	Multiplier float64 // of the voice pitch, zero means 1
	Fixed      float64 // Hz, overrides the pitch when set
	Detune     float64 // cents
	Weight     float64 // layer gain, zero means 1

	Sweep  *Sweep
	Filter *FilterSpec

	// Envelope gives the layer its own amplitude shape; such layers skip the
	// voice filter and amp and feed the engine bus directly
	Envelope *envelope.Spec

	NoiseDuration float64 // seconds, noise layers only
	NoiseDecay    float64 // taper exponent, noise layers only
}

// Config is everything a voice needs besides its pitch
type Config struct {
	Layers   []OscillatorSpec
	Filter   *FilterSpec
	Envelope envelope.Spec

	// Contour replaces the attack/decay of Envelope when present; Envelope.Release still applies
	Contour []envelope.Segment

	// Lifetime bounds the voice in seconds; zero means constant.HeldVoiceLifetime
	Lifetime float64
}

// LifetimeOrDefault returns the hard-stop bound in seconds
func (c *Config) LifetimeOrDefault() float64 {
	if c.Lifetime > 0 {
		return c.Lifetime
	}
	return constant.HeldVoiceLifetime.Seconds()
}

// Validate checks the config before any node is built
func (c *Config) Validate() error {
	if len(c.Layers) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no layers")
	}
	for i := range c.Layers {
		if err := c.Layers[i].validate(); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	if c.Filter != nil {
		if err := c.Filter.validate(); err != nil {
			return err
		}
	}
	if len(c.Contour) == 0 {
		if err := c.Envelope.Validate(); err != nil {
			return errors.Wrap(ErrInvalidConfig, err.Error())
		}
	} else if !finite(c.Envelope.Release) || c.Envelope.Release < 0 {
		return errors.Wrap(ErrInvalidConfig, "release")
	}
	if !finite(c.Lifetime) || c.Lifetime < 0 {
		return errors.Wrap(ErrInvalidConfig, "lifetime")
	}
	return nil
}

func (o *OscillatorSpec) validate() error {
	for _, v := range []float64{o.Multiplier, o.Fixed, o.Weight} {
		if !finite(v) || v < 0 {
			return errors.Wrap(ErrInvalidConfig, "negative layer value")
		}
	}
	if !finite(o.Detune) {
		return errors.Wrap(ErrInvalidConfig, "detune")
	}
	if o.Wave < core.WaveSine || o.Wave > core.WaveNoise {
		return errors.Wrapf(ErrInvalidConfig, "waveform %d", o.Wave)
	}
	if o.Wave == core.WaveNoise && !(o.NoiseDuration > 0) {
		return errors.Wrap(ErrInvalidConfig, "noise layer without duration")
	}
	if o.Sweep != nil && (!(o.Sweep.To > 0) || !finite(o.Sweep.Time) || o.Sweep.Time < 0) {
		return errors.Wrap(ErrInvalidConfig, "sweep")
	}
	if o.Filter != nil {
		if err := o.Filter.validate(); err != nil {
			return err
		}
	}
	if o.Envelope != nil {
		if err := o.Envelope.Validate(); err != nil {
			return errors.Wrap(ErrInvalidConfig, err.Error())
		}
	}
	return nil
}

// frequency resolves the layer pitch against the voice pitch
func (o *OscillatorSpec) frequency(pitch float64) float64 {
	if o.Fixed > 0 {
		return o.Fixed
	}
	if o.Multiplier > 0 {
		return pitch * o.Multiplier
	}
	return pitch
}

func (o *OscillatorSpec) weight() float64 {
	if o.Weight > 0 {
		return o.Weight
	}
	return 1
}

func (f *FilterSpec) validate() error {
	if !(f.Cutoff > 0) || !finite(f.Cutoff) {
		return errors.Wrap(ErrInvalidConfig, "filter cutoff")
	}
	if !finite(f.Q) || f.Q < 0 || !finite(f.Gain) {
		return errors.Wrap(ErrInvalidConfig, "filter q")
	}
	if f.Envelope != nil {
		if err := f.Envelope.Validate(); err != nil {
			return errors.Wrap(ErrInvalidConfig, err.Error())
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
