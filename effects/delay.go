// Package effects holds the block processors of an instrument effects chain
package effects

import (
	"math"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/constant"
)

var (
	ErrUnstableFeedback = errors.New("delay feedback must be in [0, 1)")
	ErrInvalidDelay     = errors.New("delay time out of range")
)

// Delay is a feedback delay line: each echo is the previous one scaled by the feedback
// The line holds its own feedback path, so only the echoes leave the node
type Delay struct {
	sampleRate int
	buf        []float64
	w          int
	d          int // delay in samples
	feedback   float64
}

// NewDelay creates a delay of t seconds
func NewDelay(sampleRate int, t, feedback float64) (*Delay, error) {
	d := &Delay{
		sampleRate: sampleRate,
		buf:        make([]float64, int(float64(sampleRate)*constant.MaxDelayTime.Seconds())+1),
	}
	if err := d.SetTime(t); err != nil {
		return nil, err
	}
	if err := d.SetFeedback(feedback); err != nil {
		return nil, err
	}
	return d, nil
}

// SetTime changes the echo spacing; t must be within (0, MaxDelayTime]
func (d *Delay) SetTime(t float64) error {
	n := int(math.Round(t * float64(d.sampleRate)))
	if math.IsNaN(t) || n < 1 || n >= len(d.buf) {
		return errors.Wrapf(ErrInvalidDelay, "%vs", t)
	}
	d.d = n
	return nil
}

// Time returns the echo spacing in seconds
func (d *Delay) Time() float64 {
	return float64(d.d) / float64(d.sampleRate)
}

// SetFeedback changes the echo decay; values outside [0, 1) would never die out
func (d *Delay) SetFeedback(fb float64) error {
	if !(fb >= 0 && fb < 1) {
		return errors.Wrapf(ErrUnstableFeedback, "%v", fb)
	}
	d.feedback = fb
	return nil
}

// Feedback returns the echo decay
func (d *Delay) Feedback() float64 {
	return d.feedback
}

// Reset silences the line
func (d *Delay) Reset() {
	clear(d.buf)
}

func (d *Delay) Process(in, out []float64) {
	n := len(d.buf)
	r := (d.w - d.d + n) % n
	for i, x := range in {
		y := d.buf[r]
		d.buf[d.w] = x + d.feedback*y
		out[i] = y
		if d.w++; d.w == n {
			d.w = 0
		}
		if r++; r == n {
			r = 0
		}
	}
}
