package studio

import (
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/pitch"
	"github.com/lixenwraith/vi-studio/voice"
)

// Piano plays held keys with a sustain pedal
type Piano struct {
	*instrument
}

func newPiano(s *Studio) (*Piano, error) {
	in, err := s.newInstrument(NamePiano, voice.Options{}, true)
	if err != nil {
		return nil, err
	}
	return &Piano{instrument: in}, nil
}

// Press sounds note until Release; pressing a held key keeps the voice
func (p *Piano) Press(note string) error {
	freq, err := pitch.Frequency(note)
	if err != nil {
		return err
	}
	held := p.engine.IsSounding(note)
	if _, err := p.play(recipeFor(core.InstrPiano), p.params(freq, constant.KeyVelocity, 0), note); err != nil {
		return err
	}
	if !held {
		p.noteOn(note)
	}
	return nil
}

// Release lets note ring out, or defers it while the pedal is down
func (p *Piano) Release(note string) error {
	if !p.engine.IsSounding(note) {
		return nil
	}
	deferred := p.engine.Sustain()
	p.engine.ReleaseKey(note)
	if !deferred {
		p.noteOff(note)
	}
	return nil
}

// SetSustain presses or lifts the pedal; lifting releases every deferred key
func (p *Piano) SetSustain(on bool) {
	p.engine.SetSustain(on)
}

func (p *Piano) Sustain() bool {
	return p.engine.Sustain()
}

// Held returns the keys currently holding a voice
func (p *Piano) Held() []string {
	return p.engine.Held()
}
