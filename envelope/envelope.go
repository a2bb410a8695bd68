package envelope

import (
	"errors"
	"math"

	"github.com/lixenwraith/vi-studio/constant"
)

// Param is the automation surface an envelope drives, satisfied by *audio.Param
type Param interface {
	ValueAt(t float64) float64
	SetValueAtTime(v, t float64) error
	LinearRampToValueAtTime(v, t float64) error
	ExponentialRampToValueAtTime(v, t float64) error
	CancelScheduledValues(t float64) error
}

var ErrInvalidSpec = errors.New("invalid envelope")

// Spec is an amplitude ADSR; times in seconds, Sustain a fraction of Peak
type Spec struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
	Peak    float64
}

// Validate checks durations are non-negative and levels in range
func (s Spec) Validate() error {
	for _, d := range []float64{s.Attack, s.Decay, s.Release} {
		if !finite(d) || d < 0 {
			return ErrInvalidSpec
		}
	}
	if !finite(s.Sustain) || s.Sustain < 0 || s.Sustain > 1 {
		return ErrInvalidSpec
	}
	if !finite(s.Peak) || s.Peak < 0 {
		return ErrInvalidSpec
	}
	return nil
}

// SustainLevel is the held gain, never below epsilon
func (s Spec) SustainLevel() float64 {
	return Floor(s.Peak * s.Sustain)
}

// Scaled returns a copy with Peak multiplied by k
func (s Spec) Scaled(k float64) Spec {
	s.Peak *= k
	return s
}

// Floor clamps an exponential ramp target to epsilon
func Floor(v float64) float64 {
	if !(v > constant.EnvelopeEpsilon) {
		return constant.EnvelopeEpsilon
	}
	return v
}

// Apply schedules silence at start, a linear attack to Peak and an exponential decay to the sustain level
// The value then holds until Release
func Apply(p Param, s Spec, start float64) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := p.SetValueAtTime(0, start); err != nil {
		return err
	}
	if err := p.LinearRampToValueAtTime(s.Peak, start+s.Attack); err != nil {
		return err
	}
	if s.Peak <= 0 {
		return nil
	}
	return p.ExponentialRampToValueAtTime(s.SustainLevel(), start+s.Attack+s.Decay)
}

// Release replaces the future of p with a ramp from its actual value at t down to epsilon over dur
func Release(p Param, t, dur float64) error {
	return ReleaseTo(p, t, dur, constant.EnvelopeEpsilon)
}

// ReleaseTo is Release with an explicit floor (used for filter cutoff)
func ReleaseTo(p Param, t, dur, floor float64) error {
	if !finite(dur) || dur < 0 {
		return ErrInvalidSpec
	}
	v := p.ValueAt(t)
	if err := p.CancelScheduledValues(t); err != nil {
		return err
	}
	if err := p.SetValueAtTime(v, t); err != nil {
		return err
	}
	if v <= 0 {
		return nil
	}
	return p.ExponentialRampToValueAtTime(Floor(floor), t+dur)
}

// Cutoff is a filter frequency envelope; Amount 0-1 scales the sweep above the base cutoff
type Cutoff struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
	Amount  float64
}

// Validate checks the cutoff envelope ranges
func (c Cutoff) Validate() error {
	if err := (Spec{Attack: c.Attack, Decay: c.Decay, Release: c.Release, Sustain: c.Sustain}).Validate(); err != nil {
		return err
	}
	if !finite(c.Amount) || c.Amount < 0 {
		return ErrInvalidSpec
	}
	return nil
}

// PeakFor returns the swept cutoff for base, bounded to MaxCutoff
func (c Cutoff) PeakFor(base float64) float64 {
	return math.Min(base*(1+c.Amount*constant.CutoffEnvelopeRange), constant.MaxCutoff)
}

// SustainFor returns the held cutoff for base
func (c Cutoff) SustainFor(base float64) float64 {
	peak := c.PeakFor(base)
	return base + (peak-base)*c.Sustain
}

// ReleaseFloor returns the cutoff the release sweeps toward
func ReleaseFloor(base float64) float64 {
	return math.Max(base*constant.CutoffReleaseRatio, constant.MinCutoff)
}

// ApplyCutoff sweeps p from base to the envelope peak and settles at the sustain cutoff
func ApplyCutoff(p Param, base float64, c Cutoff, start float64) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !finite(base) || base <= 0 {
		return ErrInvalidSpec
	}
	base = clampCutoff(base)
	if err := p.SetValueAtTime(base, start); err != nil {
		return err
	}
	if err := p.LinearRampToValueAtTime(c.PeakFor(base), start+c.Attack); err != nil {
		return err
	}
	return p.ExponentialRampToValueAtTime(clampCutoff(c.SustainFor(base)), start+c.Attack+c.Decay)
}

// ReleaseCutoff sweeps the cutoff down from its current value toward a tenth of base
func ReleaseCutoff(p Param, base float64, c Cutoff, t float64) error {
	return ReleaseTo(p, t, c.Release, ReleaseFloor(base))
}

func clampCutoff(f float64) float64 {
	return math.Max(constant.MinCutoff, math.Min(f, constant.MaxCutoff))
}

// Curve selects the ramp shape of a contour segment
type Curve int

const (
	CurveLinear Curve = iota
	CurveExponential
)

// Segment ramps to Target over Duration seconds
type Segment struct {
	Duration float64
	Target   float64
	Curve    Curve
}

// ApplyContour schedules a multi-stage amplitude shape starting from silence
// Exponential targets are floored at epsilon; returns the contour end time
func ApplyContour(p Param, segs []Segment, start float64) (float64, error) {
	for _, s := range segs {
		if !finite(s.Duration) || s.Duration < 0 || !finite(s.Target) || s.Target < 0 {
			return start, ErrInvalidSpec
		}
	}
	if err := p.SetValueAtTime(0, start); err != nil {
		return start, err
	}

	t := start
	for _, s := range segs {
		t += s.Duration
		var err error
		switch s.Curve {
		case CurveExponential:
			err = p.ExponentialRampToValueAtTime(Floor(s.Target), t)
		default:
			err = p.LinearRampToValueAtTime(s.Target, t)
		}
		if err != nil {
			return start, err
		}
	}
	return t, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
