package studio

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/effects"
	"github.com/lixenwraith/vi-studio/pitch"
	"github.com/lixenwraith/vi-studio/recipe"
	"github.com/lixenwraith/vi-studio/sequencer"
	"github.com/lixenwraith/vi-studio/status"
	"github.com/lixenwraith/vi-studio/voice"
)

var (
	ErrUnknownPreset = errors.New("unknown synth preset")
	ErrInvalidLFO    = errors.New("invalid lfo settings")
	ErrInvalidStep   = errors.New("step out of range")
)

// LFO modulates every synth voice's filter cutoff
type LFO struct {
	Wave      core.Waveform `json:"wave"`
	Rate      float64       `json:"rate"`      // Hz
	FilterMod float64       `json:"filterMod"` // 0..100
}

func DefaultLFO() LFO {
	return LFO{Wave: core.WaveSine, Rate: constant.LFODefaultRate, FilterMod: constant.LFODefaultFilterMod}
}

func (l LFO) validate() error {
	if l.Wave == core.WaveNoise || l.Wave < 0 || l.Wave > core.WaveTriangle {
		return errors.Wrapf(ErrInvalidLFO, "wave %s", l.Wave)
	}
	if !(l.Rate > 0 && l.Rate <= constant.LFOMaxRate) {
		return errors.Wrapf(ErrInvalidLFO, "rate %v", l.Rate)
	}
	if !(l.FilterMod >= 0 && l.FilterMod <= 100) {
		return errors.Wrapf(ErrInvalidLFO, "filter depth %v", l.FilterMod)
	}
	return nil
}

// Synth is a two-oscillator subtractive synth with an LFO, an effects chain, and a step grid
type Synth struct {
	*instrument
	chain *effects.Chain
	depth *audio.Gain // LFO swing in Hz, the engine's modulator
	seq   *sequencer.Sequencer

	presetName *status.AtomicString

	mu     sync.Mutex
	lfo    *audio.Oscillator
	lfoCfg LFO
	preset recipe.Preset
	octave int
	steps  [constant.SynthSteps]bool
}

func newSynth(s *Studio) (*Synth, error) {
	chain, err := effects.NewChain(s.ctx, s.ctx.Destination(), s.cfg.Effects, s.newRand())
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, chain.Dispose)

	depth, err := s.ctx.NewGain(0)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, depth.Dispose)

	in, err := s.newInstrument(NameSynth, voice.Options{Output: chain.Input(), Modulator: depth}, true)
	if err != nil {
		return nil, err
	}
	sy := &Synth{
		instrument: in,
		chain:      chain,
		depth:      depth,
		presetName: s.metrics.Strings.Get(status.StudioPreset),
		preset:     recipe.DefaultPreset,
		octave:     constant.DefaultSynthOctave,
	}
	s.closers = append(s.closers, sy.disposeLFO)
	sy.presetName.Store(sy.preset.Name)

	if err := sy.SetLFO(DefaultLFO()); err != nil {
		return nil, err
	}
	if sy.seq, err = sequencer.New(s.ctx.Clock(), sy.grid(), s.cfg.BPM, sy.onStep, s.metrics); err != nil {
		return nil, err
	}
	return sy, nil
}

// Effects returns the synth chain
func (sy *Synth) Effects() *effects.Chain {
	return sy.chain
}

// SetEffects applies new chain settings
func (sy *Synth) SetEffects(s effects.Settings) error {
	return sy.chain.Apply(s)
}

// Press holds note until Release
func (sy *Synth) Press(note string) error {
	freq, err := pitch.Frequency(note)
	if err != nil {
		return err
	}
	held := sy.engine.IsSounding(note)
	if err := sy.trigger(freq, constant.KeyVelocity, note); err != nil {
		return err
	}
	if !held {
		sy.noteOn(note)
	}
	return nil
}

// Release starts the amp and filter release of note
func (sy *Synth) Release(note string) error {
	if !sy.engine.IsSounding(note) {
		return nil
	}
	sy.engine.ReleaseKey(note)
	sy.noteOff(note)
	return nil
}

func (sy *Synth) trigger(freq, velocity float64, key string) error {
	sy.mu.Lock()
	pr := sy.preset
	sy.mu.Unlock()
	build := func(p recipe.Params) (voice.Config, float64, error) {
		cfg, f := recipe.Synth(pr, p)
		return cfg, f, nil
	}
	_, err := sy.play(build, sy.params(freq, velocity, 0), key)
	return err
}

// LoadPreset switches to a named preset; sounding voices keep their timbre
func (sy *Synth) LoadPreset(name string) error {
	pr, ok := recipe.LookupPreset(name)
	if !ok {
		return errors.Wrap(ErrUnknownPreset, name)
	}
	sy.SetPreset(pr)
	return nil
}

// SetPreset installs an edited preset
func (sy *Synth) SetPreset(pr recipe.Preset) {
	sy.mu.Lock()
	sy.preset = pr
	sy.mu.Unlock()
	sy.presetName.Store(pr.Name)
}

func (sy *Synth) Preset() recipe.Preset {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	return sy.preset
}

// SetLFO replaces the LFO; a new waveform restarts the oscillator
func (sy *Synth) SetLFO(l LFO) error {
	if err := l.validate(); err != nil {
		return err
	}
	ctx := sy.studio.ctx

	sy.mu.Lock()
	defer sy.mu.Unlock()

	if sy.lfo == nil || l.Wave != sy.lfoCfg.Wave {
		osc, err := ctx.NewOscillator(l.Wave, l.Rate)
		if err != nil {
			return err
		}
		if err := osc.Connect(sy.depth); err != nil {
			osc.Dispose()
			return err
		}
		if err := osc.Start(ctx.CurrentTime()); err != nil {
			osc.Dispose()
			return err
		}
		if sy.lfo != nil {
			sy.lfo.Dispose()
		}
		sy.lfo = osc
	}
	if err := sy.lfo.Frequency().SetValue(l.Rate); err != nil {
		return err
	}
	if err := sy.depth.Gain().SetValue(l.FilterMod * constant.LFOCutoffPerUnit); err != nil {
		return err
	}
	sy.lfoCfg = l
	return nil
}

func (sy *Synth) LFO() LFO {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	return sy.lfoCfg
}

func (sy *Synth) disposeLFO() {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	if sy.lfo != nil {
		sy.lfo.Dispose()
		sy.lfo = nil
	}
}

// grid builds the step pattern from the current steps and octave; caller need not hold mu
func (sy *Synth) grid() *sequencer.Pattern {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	return sequencer.Grid("synth", core.InstrSynth, fmt.Sprintf("C%d", sy.octave), sy.steps[:])
}

func (sy *Synth) onStep(st sequencer.Step) {
	freq, err := pitch.Frequency(st.Lane.Note)
	if err != nil {
		sy.studio.logf("synth step %d: %v", st.Index, err)
		return
	}
	key := "step:" + st.Lane.Note
	if err := sy.trigger(freq, constant.SequencerVelocity, key); err != nil {
		sy.studio.logf("synth step %d: %v", st.Index, err)
		return
	}
	ctx := sy.studio.ctx
	ctx.At(ctx.CurrentTime()+constant.SequencerNoteLength.Seconds(), func() {
		sy.engine.ReleaseKey(key)
	})
}

// SetStep turns a grid cell on or off
func (sy *Synth) SetStep(i int, on bool) error {
	if i < 0 || i >= constant.SynthSteps {
		return errors.Wrapf(ErrInvalidStep, "%d", i)
	}
	sy.mu.Lock()
	sy.steps[i] = on
	sy.mu.Unlock()
	return sy.seq.SetPattern(sy.grid())
}

// ToggleStep flips a grid cell and returns its new state
func (sy *Synth) ToggleStep(i int) (bool, error) {
	if i < 0 || i >= constant.SynthSteps {
		return false, errors.Wrapf(ErrInvalidStep, "%d", i)
	}
	sy.mu.Lock()
	on := !sy.steps[i]
	sy.mu.Unlock()
	return on, sy.SetStep(i, on)
}

// Steps returns a copy of the grid
func (sy *Synth) Steps() []bool {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	return append([]bool(nil), sy.steps[:]...)
}

// ClearSteps empties the grid
func (sy *Synth) ClearSteps() {
	sy.mu.Lock()
	sy.steps = [constant.SynthSteps]bool{}
	sy.mu.Unlock()
	if err := sy.seq.SetPattern(sy.grid()); err != nil {
		sy.studio.logf("synth clear: %v", err)
	}
}

// SetOctave moves the grid note and returns the applied octave
func (sy *Synth) SetOctave(o int) int {
	o = max(constant.MinSynthOctave, min(o, constant.MaxSynthOctave))
	sy.mu.Lock()
	sy.octave = o
	sy.mu.Unlock()
	if err := sy.seq.SetPattern(sy.grid()); err != nil {
		sy.studio.logf("synth octave: %v", err)
	}
	return o
}

func (sy *Synth) Octave() int {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	return sy.octave
}

// StartSequence loops the grid from step 0
func (sy *Synth) StartSequence() {
	sy.seq.Start()
}

// StopSequence halts the grid and rewinds it
func (sy *Synth) StopSequence() {
	if sy.seq != nil {
		sy.seq.Reset()
	}
}

func (sy *Synth) IsSequencing() bool {
	return sy.seq.IsRunning()
}

// Step returns the next grid step to fire
func (sy *Synth) Step() int {
	return sy.seq.Step()
}

// SetBPM retempos the grid and returns the applied value
func (sy *Synth) SetBPM(bpm int) int {
	return sy.seq.SetBPM(bpm)
}
