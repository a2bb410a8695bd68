package studio

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/recipe"
	"github.com/lixenwraith/vi-studio/voice"
)

var ErrInvalidRoll = errors.New("roll needs a positive count and spacing")

// Percussion plays the hand percussion and ambient sound tables
type Percussion struct {
	*instrument
}

func newPercussion(s *Studio) (*Percussion, error) {
	in, err := s.newInstrument(NamePercussion, voice.Options{}, false)
	if err != nil {
		return nil, err
	}
	return &Percussion{instrument: in}, nil
}

// Play strikes a named sound at velocity
func (p *Percussion) Play(name string, velocity float64) error {
	build := func(rp recipe.Params) (voice.Config, float64, error) {
		return recipe.Percussion(name, rp)
	}
	_, err := p.play(build, p.params(0, velocity, 0), "")
	return err
}

// Pad strikes a named sound at full velocity
func (p *Percussion) Pad(name string) error {
	return p.Play(name, constant.PadVelocity)
}

// Roll strikes name count times, spacing apart, fading each hit a little
func (p *Percussion) Roll(name string, count int, spacing time.Duration) error {
	if count <= 0 || spacing <= 0 {
		return ErrInvalidRoll
	}
	if _, ok := recipe.LookupSound(name); !ok {
		return errors.Wrap(recipe.ErrUnknownSound, name)
	}
	ctx := p.studio.ctx
	start := ctx.CurrentTime()
	for i := range count {
		vel := constant.PadVelocity * (1 - 0.5*float64(i)/float64(count))
		ctx.At(start+(time.Duration(i)*spacing).Seconds(), func() {
			if err := p.Play(name, vel); err != nil {
				p.studio.logf("percussion roll %s: %v", name, err)
			}
		})
	}
	return nil
}

// Sounds lists every playable sound name
func (p *Percussion) Sounds() []string {
	return recipe.SoundNames()
}
