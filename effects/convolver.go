package effects

import (
	"math"
	"math/rand/v2"

	"github.com/ktye/fft"
	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/noise"
)

var ErrEmptyImpulse = errors.New("impulse response is empty or silent")

// Convolver is a uniformly partitioned overlap-save convolution reverb
// The impulse is split into blocks of B samples and each block is applied in the
// frequency domain with a 2B point FFT; output lags input by B samples
type Convolver struct {
	b     int
	fft   fft.FFT
	scale float64 // inverse transform normalization

	parts [][]complex128 // spectra of the impulse partitions
	fdl   [][]complex128 // spectra of recent input windows, newest at head
	head  int

	window []float64 // previous block followed by the block being filled
	out    []float64 // output of the last completed block
	pos    int

	work []complex128
	acc  []complex128
}

// NewConvolver prepares impulse for block convolution; the impulse is energy-normalized
func NewConvolver(impulse []float64) (*Convolver, error) {
	b := constant.ConvolverBlock
	f, err := fft.New(2 * b)
	if err != nil {
		return nil, errors.Wrap(err, "fft")
	}
	c := &Convolver{
		b:      b,
		fft:    f,
		window: make([]float64, 2*b),
		out:    make([]float64, b),
		work:   make([]complex128, 2*b),
		acc:    make([]complex128, 2*b),
	}
	c.scale = c.calibrate()
	if err := c.SetImpulse(impulse); err != nil {
		return nil, err
	}
	return c, nil
}

// calibrate measures the round-trip gain of the transform pair
func (c *Convolver) calibrate() float64 {
	x := make([]complex128, 2*c.b)
	x[0] = 1
	y := c.fft.Inverse(c.fft.Transform(x))
	if g := real(y[0]); g != 0 {
		return 1 / g
	}
	return 1
}

// SetImpulse replaces the impulse response and clears the reverb tail
func (c *Convolver) SetImpulse(impulse []float64) error {
	energy := 0.0
	for _, v := range impulse {
		energy += v * v
	}
	if energy == 0 || math.IsNaN(energy) || math.IsInf(energy, 0) {
		return ErrEmptyImpulse
	}
	norm := 1 / math.Sqrt(energy)

	n := (len(impulse) + c.b - 1) / c.b
	c.parts = make([][]complex128, n)
	c.fdl = make([][]complex128, n)
	for p := range c.parts {
		seg := make([]complex128, 2*c.b)
		for i := 0; i < c.b && p*c.b+i < len(impulse); i++ {
			seg[i] = complex(impulse[p*c.b+i]*norm, 0)
		}
		c.parts[p] = append([]complex128(nil), c.fft.Transform(seg)...)
		c.fdl[p] = make([]complex128, 2*c.b)
	}
	c.Reset()
	return nil
}

// Partitions returns the number of impulse blocks
func (c *Convolver) Partitions() int {
	return len(c.parts)
}

// Latency returns the input to output delay in samples
func (c *Convolver) Latency() int {
	return c.b
}

// Reset clears the input history
func (c *Convolver) Reset() {
	for _, s := range c.fdl {
		clear(s)
	}
	clear(c.window)
	clear(c.out)
	c.head = 0
	c.pos = 0
}

func (c *Convolver) Process(in, out []float64) {
	for i, x := range in {
		out[i] = c.out[c.pos]
		c.window[c.b+c.pos] = x
		if c.pos++; c.pos == c.b {
			c.block()
			c.pos = 0
		}
	}
}

// block convolves the latest 2B input window with every partition
func (c *Convolver) block() {
	for i, v := range c.window {
		c.work[i] = complex(v, 0)
	}
	copy(c.fdl[c.head], c.fft.Transform(c.work))

	clear(c.acc)
	n := len(c.parts)
	for p, h := range c.parts {
		x := c.fdl[(c.head-p+n)%n]
		for k := range c.acc {
			c.acc[k] += x[k] * h[k]
		}
	}

	y := c.fft.Inverse(c.acc)
	for i := range c.out {
		c.out[i] = real(y[c.b+i]) * c.scale
	}

	copy(c.window[:c.b], c.window[c.b:])
	c.head = (c.head + 1) % n
}

// Impulse generates a decaying noise impulse for a room of size 0..100
func Impulse(sampleRate int, size float64, rng *rand.Rand) ([]float64, error) {
	size = math.Max(0, math.Min(size, 100))
	return noise.New(sampleRate, size/50+0.5, constant.ReverbDecayExponent, rng)
}
