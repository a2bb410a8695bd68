package audio

import (
	"math"

	"github.com/lixenwraith/vi-studio/core"
)

const minQ = 1e-4

// Biquad is a second-order IIR filter (RBJ cookbook, Direct Form I)
// Coefficients follow the params once per render block
type Biquad struct {
	*node
	typ  core.FilterType
	freq *Param
	q    *Param
	gain *Param // dB, peaking and shelf types only

	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64

	lastFreq, lastQ, lastGain float64
	primed                    bool
}

// NewBiquad creates a filter of type typ at cutoff freq Hz with quality q
func (c *Context) NewBiquad(typ core.FilterType, freq, q float64) (*Biquad, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := &Biquad{typ: typ}
	n, err := c.alloc(b)
	if err != nil {
		return nil, err
	}
	b.node = n
	nyquist := float64(c.sampleRate) / 2
	b.freq = newParam(c, n, freq, 0, nyquist)
	b.q = newParam(c, n, q, 0, 1000)
	b.gain = newParam(c, n, 0, -40, 40)
	return b, nil
}

// Type returns the filter response
func (b *Biquad) Type() core.FilterType {
	return b.typ
}

// Frequency returns the cutoff/center param (Hz)
func (b *Biquad) Frequency() *Param {
	return b.freq
}

// Q returns the quality param
func (b *Biquad) Q() *Param {
	return b.q
}

// Gain returns the boost/cut param (dB)
func (b *Biquad) Gain() *Param {
	return b.gain
}

func (b *Biquad) params() []*Param {
	return []*Param{b.freq, b.q, b.gain}
}

func (b *Biquad) process(q *quantum, in, out []float64) {
	freq := b.freq.fill(q)[0]
	qv := b.q.fill(q)[0]
	gain := b.gain.fill(q)[0]

	if !b.primed || freq != b.lastFreq || qv != b.lastQ || gain != b.lastGain {
		b.design(freq, qv, gain, 1.0/q.dt)
		b.lastFreq, b.lastQ, b.lastGain = freq, qv, gain
		b.primed = true
	}

	for i, x := range in {
		y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
		if math.IsNaN(y) || math.IsInf(y, 0) {
			b.x1, b.x2, b.y1, b.y2 = 0, 0, 0, 0
			y = 0
		}
		b.x2, b.x1 = b.x1, x
		b.y2, b.y1 = b.y1, y
		out[i] = y
	}
}

// design computes normalized coefficients
func (b *Biquad) design(freq, q, gainDB, sampleRate float64) {
	nyquist := sampleRate / 2
	freq = math.Max(1, math.Min(freq, nyquist*0.999))
	q = math.Max(q, minQ)

	w0 := 2 * math.Pi * freq / sampleRate
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / (2 * q)
	A := math.Pow(10, gainDB/40)

	var b0, b1, b2, a0, a1, a2 float64
	switch b.typ {
	case core.FilterLowpass:
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = (1 - cosw) / 2
		a0, a1, a2 = 1+alpha, -2*cosw, 1-alpha
	case core.FilterHighpass:
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = (1 + cosw) / 2
		a0, a1, a2 = 1+alpha, -2*cosw, 1-alpha
	case core.FilterBandpass:
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cosw, 1-alpha
	case core.FilterNotch:
		b0, b1, b2 = 1, -2*cosw, 1
		a0, a1, a2 = 1+alpha, -2*cosw, 1-alpha
	case core.FilterAllpass:
		b0, b1, b2 = 1-alpha, -2*cosw, 1+alpha
		a0, a1, a2 = 1+alpha, -2*cosw, 1-alpha
	case core.FilterPeaking:
		b0, b1, b2 = 1+alpha*A, -2*cosw, 1-alpha*A
		a0, a1, a2 = 1+alpha/A, -2*cosw, 1-alpha/A
	case core.FilterLowshelf, core.FilterHighshelf:
		// Shelf slope S = 1
		s := 2 * math.Sqrt(A) * (sinw / 2 * math.Sqrt2)
		if b.typ == core.FilterLowshelf {
			b0 = A * ((A + 1) - (A-1)*cosw + s)
			b1 = 2 * A * ((A - 1) - (A+1)*cosw)
			b2 = A * ((A + 1) - (A-1)*cosw - s)
			a0 = (A + 1) + (A-1)*cosw + s
			a1 = -2 * ((A - 1) + (A+1)*cosw)
			a2 = (A + 1) + (A-1)*cosw - s
		} else {
			b0 = A * ((A + 1) + (A-1)*cosw + s)
			b1 = -2 * A * ((A - 1) + (A+1)*cosw)
			b2 = A * ((A + 1) + (A-1)*cosw - s)
			a0 = (A + 1) - (A-1)*cosw + s
			a1 = 2 * ((A - 1) - (A+1)*cosw)
			a2 = (A + 1) - (A-1)*cosw - s
		}
	default:
		b0, a0 = 1, 1
	}

	b.b0, b.b1, b.b2 = b0/a0, b1/a0, b2/a0
	b.a1, b.a2 = a1/a0, a2/a0
}

// MagnitudeAt returns the filter's linear magnitude response at freq Hz for the current coefficients
func (b *Biquad) MagnitudeAt(freq float64) float64 {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()

	if !b.primed {
		t := b.ctx.nowSeconds()
		b.design(b.freq.valueAt(t), b.q.valueAt(t), b.gain.valueAt(t), float64(b.ctx.sampleRate))
	}
	w := 2 * math.Pi * freq / float64(b.ctx.sampleRate)
	z1 := complexExp(-w)
	z2 := complexExp(-2 * w)
	num := complex(b.b0, 0) + complex(b.b1, 0)*z1 + complex(b.b2, 0)*z2
	den := complex(1, 0) + complex(b.a1, 0)*z1 + complex(b.a2, 0)*z2
	return cabs(num / den)
}

func complexExp(w float64) complex128 {
	return complex(math.Cos(w), math.Sin(w))
}

func cabs(z complex128) float64 {
	return math.Hypot(real(z), imag(z))
}
