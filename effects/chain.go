package effects

import (
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/noise"
)

// Distortion settings; Drive is 0..100
type Distortion struct {
	Enabled bool    `json:"enabled"`
	Drive   float64 `json:"drive"`
}

// Reverb settings; Size is 0..100 and sets both the room length and the wet level
type Reverb struct {
	Enabled bool    `json:"enabled"`
	Size    float64 `json:"size"`
}

// DelaySettings are the echo settings; Time is in milliseconds, Feedback 0..100
type DelaySettings struct {
	Enabled  bool    `json:"enabled"`
	Time     float64 `json:"time"`
	Feedback float64 `json:"feedback"`
}

// Settings configures every stage of a Chain
type Settings struct {
	Distortion Distortion    `json:"distortion"`
	Reverb     Reverb        `json:"reverb"`
	Delay      DelaySettings `json:"delay"`
}

// DefaultSettings is a short room reverb with the other stages off
func DefaultSettings() Settings {
	return Settings{
		Reverb: Reverb{Enabled: true, Size: 30},
		Delay:  DelaySettings{Time: 250, Feedback: 30},
	}
}

// Validate checks ranges; feedback at or above 100 would never decay
func (s Settings) Validate() error {
	if !(s.Distortion.Drive >= 0 && s.Distortion.Drive <= 100) {
		return errors.Errorf("distortion drive %v out of range", s.Distortion.Drive)
	}
	if !(s.Reverb.Size >= 0 && s.Reverb.Size <= 100) {
		return errors.Errorf("reverb size %v out of range", s.Reverb.Size)
	}
	if !(s.Delay.Time > 0 && s.Delay.Time <= float64(constant.MaxDelayTime.Milliseconds())) {
		return errors.Wrapf(ErrInvalidDelay, "%vms", s.Delay.Time)
	}
	if !(s.Delay.Feedback >= 0 && s.Delay.Feedback < 100) {
		return errors.Wrapf(ErrUnstableFeedback, "%v%%", s.Delay.Feedback)
	}
	return nil
}

// Chain is an instrument effects bus:
// input -> distortion -> output, with parallel reverb and delay sends off the distortion
type Chain struct {
	ctx *audio.Context
	rng *rand.Rand

	in        *audio.Gain
	shaper    *audio.ProcessorNode
	out       *audio.Gain
	reverb    *audio.ProcessorNode
	reverbWet *audio.Gain
	delay     *audio.ProcessorNode
	delayWet  *audio.Gain

	settings Settings
	nodes    []interface{ Dispose() }
}

// NewChain builds the chain into output with s applied
func NewChain(ctx *audio.Context, output audio.Node, s Settings, rng *rand.Rand) (_ *Chain, err error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = noise.NewRand()
	}
	c := &Chain{ctx: ctx, rng: rng}
	defer func() {
		if err != nil {
			c.Dispose()
		}
	}()

	if c.in, err = c.gain(1); err != nil {
		return nil, err
	}
	if c.out, err = c.gain(1); err != nil {
		return nil, err
	}
	if c.reverbWet, err = c.gain(0); err != nil {
		return nil, err
	}
	if c.delayWet, err = c.gain(0); err != nil {
		return nil, err
	}
	if c.shaper, err = c.processor(NewWaveShaper(nil)); err != nil {
		return nil, err
	}

	ir, err := Impulse(ctx.SampleRate(), s.Reverb.Size, rng)
	if err != nil {
		return nil, err
	}
	conv, err := NewConvolver(ir)
	if err != nil {
		return nil, err
	}
	if c.reverb, err = c.processor(conv); err != nil {
		return nil, err
	}

	dl, err := NewDelay(ctx.SampleRate(), s.Delay.Time/1000, s.Delay.Feedback/100)
	if err != nil {
		return nil, err
	}
	if c.delay, err = c.processor(dl); err != nil {
		return nil, err
	}

	links := [][2]audio.Node{
		{c.in, c.shaper},
		{c.shaper, c.out},
		{c.shaper, c.reverb},
		{c.shaper, c.delay},
		{c.reverbWet, c.out},
		{c.delayWet, c.out},
		{c.out, output},
	}
	for _, l := range links {
		if err = connect(l[0], l[1]); err != nil {
			return nil, err
		}
	}

	c.settings = Settings{Reverb: Reverb{Size: s.Reverb.Size}, Delay: s.Delay}
	if err = c.Apply(s); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) gain(v float64) (*audio.Gain, error) {
	g, err := c.ctx.NewGain(v)
	if err != nil {
		return nil, err
	}
	c.nodes = append(c.nodes, g)
	return g, nil
}

func (c *Chain) processor(p audio.Processor) (*audio.ProcessorNode, error) {
	n, err := c.ctx.NewProcessor(p)
	if err != nil {
		return nil, err
	}
	c.nodes = append(c.nodes, n)
	return n, nil
}

// Input is the node voices connect into
func (c *Chain) Input() audio.Node {
	return c.in
}

// Settings returns the applied settings
func (c *Chain) Settings() Settings {
	return c.settings
}

// Apply switches stages on or off and retunes them
// Disabled sends are unhooked from the output so their processors are not rendered
func (c *Chain) Apply(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	prev := c.settings

	var curve []float64
	if s.Distortion.Enabled {
		curve = DistortionCurve(s.Distortion.Drive/100, constant.DistortionCurveSamples)
	}
	c.shaper.Do(func(p audio.Processor) { p.(*WaveShaper).SetCurve(curve) })

	if s.Reverb.Size != prev.Reverb.Size {
		ir, err := Impulse(c.ctx.SampleRate(), s.Reverb.Size, c.rng)
		if err != nil {
			return err
		}
		var setErr error
		c.reverb.Do(func(p audio.Processor) { setErr = p.(*Convolver).SetImpulse(ir) })
		if setErr != nil {
			return setErr
		}
	}
	if err := c.toggle(c.reverb, c.reverbWet, s.Reverb.Enabled, s.Reverb.Size/100); err != nil {
		return err
	}

	var delayErr error
	c.delay.Do(func(p audio.Processor) {
		d := p.(*Delay)
		if delayErr = d.SetTime(s.Delay.Time / 1000); delayErr == nil {
			delayErr = d.SetFeedback(s.Delay.Feedback / 100)
		}
	})
	if delayErr != nil {
		return delayErr
	}
	if err := c.toggle(c.delay, c.delayWet, s.Delay.Enabled, constant.DelayWetLevel); err != nil {
		return err
	}

	c.settings = s
	return nil
}

func (c *Chain) toggle(stage *audio.ProcessorNode, wet *audio.Gain, on bool, level float64) error {
	if !on {
		stage.Disconnect()
		return wet.Gain().SetValue(0)
	}
	if err := wet.Gain().SetValue(level); err != nil {
		return err
	}
	return stage.Connect(wet)
}

// Dispose tears down every node of the chain
func (c *Chain) Dispose() {
	for i := len(c.nodes) - 1; i >= 0; i-- {
		c.nodes[i].Dispose()
	}
	c.nodes = nil
}

func connect(src, dst audio.Node) error {
	c, ok := src.(interface{ Connect(audio.Node) error })
	if !ok {
		return errors.New("node cannot connect")
	}
	return c.Connect(dst)
}
