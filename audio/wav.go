package audio

import (
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"
)

// WriteWAV renders d of the context into w as 16-bit stereo WAV
// Scheduled callbacks fire as the render passes their deadlines
func WriteWAV(w io.WriteSeeker, c *Context, d time.Duration) error {
	if c.State() != StateRunning {
		return errors.Wrapf(ErrNotRunning, "render wav in state %s", c.State())
	}

	rate := beep.SampleRate(c.SampleRate())
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}

	if err := wav.Encode(w, beep.Take(rate.N(d), c), format); err != nil {
		return errors.Wrap(err, "encode wav")
	}
	return nil
}
