package audio

import (
	"fmt"
	"math"

	"github.com/lixenwraith/vi-studio/core"
)

// scheduled tracks a generator's start/stop window
type scheduled struct {
	started bool
	start   float64
	stop    float64
}

func (s *scheduled) setStart(t float64) error {
	if err := checkTime(t); err != nil {
		return err
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.start = t
	s.stop = math.Inf(1)
	return nil
}

func (s *scheduled) setStop(t float64) error {
	if err := checkTime(t); err != nil {
		return err
	}
	if !s.started {
		return fmt.Errorf("stop before start")
	}
	s.stop = t
	return nil
}

func (s *scheduled) active(t float64) bool {
	return s.started && t >= s.start && t < s.stop
}

// Oscillator is a periodic waveform generator
type Oscillator struct {
	*node
	wave   core.Waveform
	freq   *Param
	detune *Param
	phase  float64
	window scheduled
}

// NewOscillator creates an unstarted oscillator at freq Hz
func (c *Context) NewOscillator(wave core.Waveform, freq float64) (*Oscillator, error) {
	if wave == core.WaveNoise || wave < 0 || wave > core.WaveTriangle {
		return nil, fmt.Errorf("oscillator waveform %s not periodic", wave)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	o := &Oscillator{wave: wave}
	n, err := c.alloc(o)
	if err != nil {
		return nil, err
	}
	o.node = n
	nyquist := float64(c.sampleRate) / 2
	o.freq = newParam(c, n, freq, -nyquist, nyquist)
	o.detune = newParam(c, n, 0, -153600, 153600)
	return o, nil
}

// Frequency returns the frequency param (Hz)
func (o *Oscillator) Frequency() *Param {
	return o.freq
}

// Detune returns the detune param (cents)
func (o *Oscillator) Detune() *Param {
	return o.detune
}

// Start begins output at time t
func (o *Oscillator) Start(t float64) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.window.setStart(t)
}

// Stop ends output at time t
func (o *Oscillator) Stop(t float64) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.window.setStop(t)
}

func (o *Oscillator) params() []*Param {
	return []*Param{o.freq, o.detune}
}

func (o *Oscillator) process(q *quantum, in, out []float64) {
	freq := o.freq.fill(q)
	detune := o.detune.fill(q)
	sr := 1.0 / q.dt

	for i := range out {
		if !o.window.active(q.time(i)) {
			out[i] = 0
			continue
		}

		out[i] = waveSample(o.wave, o.phase)

		f := freq[i]
		if detune[i] != 0 {
			f *= math.Exp2(detune[i] / 1200)
		}
		o.phase += f / sr
		o.phase -= math.Floor(o.phase)
	}
}

// waveSample evaluates a unit waveform at phase in [0, 1)
func waveSample(wave core.Waveform, phase float64) float64 {
	switch wave {
	case core.WaveSine:
		return math.Sin(2 * math.Pi * phase)
	case core.WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case core.WaveSawtooth:
		return 2*phase - 1
	case core.WaveTriangle:
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	}
	return 0
}
