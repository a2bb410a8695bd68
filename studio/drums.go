package studio

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/sequencer"
	"github.com/lixenwraith/vi-studio/status"
	"github.com/lixenwraith/vi-studio/voice"
)

var ErrNotDrum = errors.New("instrument is not a drum")

const DefaultBeat = "basic"

// Drums plays kit pieces by hand, as beat patterns, and as a metronome
type Drums struct {
	*instrument
	beat      *sequencer.Sequencer
	metronome *sequencer.Sequencer
	pattern   *status.AtomicString
}

func newDrums(s *Studio) (*Drums, error) {
	in, err := s.newInstrument(NameDrums, voice.Options{}, false)
	if err != nil {
		return nil, err
	}
	d := &Drums{instrument: in, pattern: s.metrics.Strings.Get(status.StudioPattern)}

	p, err := sequencer.Lookup(DefaultBeat)
	if err != nil {
		return nil, err
	}
	clk := s.ctx.Clock()
	if d.beat, err = sequencer.New(clk, p, s.cfg.BPM, d.onBeat, s.metrics); err != nil {
		return nil, err
	}
	if d.metronome, err = sequencer.New(clk, sequencer.Metronome(), s.cfg.BPM, d.onClick, s.metrics); err != nil {
		return nil, err
	}
	d.pattern.Store(p.Name)
	return d, nil
}

// Hit strikes one kit piece
func (d *Drums) Hit(instr core.Instrument, velocity float64) error {
	if !instr.IsDrum() {
		return errors.Wrap(ErrNotDrum, instr.String())
	}
	_, err := d.play(recipeFor(instr), d.params(0, velocity, 0), "")
	return err
}

// Pad strikes a kit piece by name, e.g. "kick" or "hihat-open"
func (d *Drums) Pad(name string) error {
	instr, ok := core.ParseInstrument(name)
	if !ok {
		return errors.Wrapf(ErrNotDrum, "%q", name)
	}
	return d.Hit(instr, constant.PadVelocity)
}

func (d *Drums) onBeat(st sequencer.Step) {
	if err := d.Hit(st.Lane.Instrument, constant.PadVelocity); err != nil {
		d.studio.logf("drums step %d: %v", st.Index, err)
	}
}

func (d *Drums) onClick(st sequencer.Step) {
	p := d.params(0, constant.PadVelocity, st.Index)
	if _, err := d.play(recipeFor(core.InstrClick), p, ""); err != nil {
		d.studio.logf("metronome beat %d: %v", st.Index, err)
	}
}

// SetPattern switches the beat pattern; a playing loop continues from the same step
func (d *Drums) SetPattern(name string) error {
	p, err := sequencer.Lookup(name)
	if err != nil {
		return err
	}
	if err := d.beat.SetPattern(p); err != nil {
		return err
	}
	d.pattern.Store(p.Name)
	return nil
}

// Pattern returns the current beat pattern name
func (d *Drums) Pattern() string {
	return d.beat.Pattern().Name
}

// Patterns lists the registered beat patterns
func (d *Drums) Patterns() []string {
	return sequencer.Names()
}

// Play starts the beat loop from its current step
func (d *Drums) Play() {
	d.beat.Start()
}

// Stop halts the beat loop and rewinds it
func (d *Drums) Stop() {
	d.beat.Reset()
}

func (d *Drums) IsPlaying() bool {
	return d.beat.IsRunning()
}

// Step returns the next beat step to fire
func (d *Drums) Step() int {
	return d.beat.Step()
}

func (d *Drums) StartMetronome() {
	d.metronome.Start()
}

func (d *Drums) StopMetronome() {
	d.metronome.Reset()
}

func (d *Drums) MetronomeOn() bool {
	return d.metronome.IsRunning()
}

// SetBPM retempos both the beat and the metronome, returning the applied value
func (d *Drums) SetBPM(bpm int) int {
	d.metronome.SetBPM(bpm)
	return d.beat.SetBPM(bpm)
}

func (d *Drums) BPM() int {
	return d.beat.BPM()
}
