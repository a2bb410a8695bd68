package studio

import (
	"math/rand/v2"
	"sync"

	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/recipe"
	"github.com/lixenwraith/vi-studio/recorder"
	"github.com/lixenwraith/vi-studio/voice"
)

// builder produces a voice config and its trigger frequency
type builder func(p recipe.Params) (voice.Config, float64, error)

func recipeFor(instr core.Instrument) builder {
	return func(p recipe.Params) (voice.Config, float64, error) {
		return recipe.Build(instr, p)
	}
}

// instrument is the part every controller shares: one voice engine and an optional recorder
type instrument struct {
	studio *Studio
	name   string
	engine *voice.Engine
	rec    *recorder.Recorder

	mu  sync.Mutex // guards rng, recipes run on the UI and the clock goroutine alike
	rng *rand.Rand
}

func (s *Studio) newInstrument(name string, opts voice.Options, record bool) (*instrument, error) {
	opts.MaxVoices = s.cfg.MaxVoices
	opts.Noise = s.bank
	opts.Metrics = s.metrics
	eng, err := voice.NewEngine(s.ctx, opts)
	if err != nil {
		return nil, err
	}
	in := &instrument{
		studio: s,
		name:   name,
		engine: eng,
		rng:    s.newRand(),
	}
	if record {
		in.rec = recorder.New(s.ctx.Clock(), name)
	}
	s.instruments = append(s.instruments, in)
	return in, nil
}

// Name returns the instrument name
func (in *instrument) Name() string {
	return in.name
}

// Engine returns the instrument's voice engine
func (in *instrument) Engine() *voice.Engine {
	return in.engine
}

// Recorder returns the note recorder, nil for instruments that do not record
func (in *instrument) Recorder() *recorder.Recorder {
	return in.rec
}

// StartRecording begins a new take
func (in *instrument) StartRecording() {
	if in.rec == nil {
		return
	}
	in.rec.Start()
	in.studio.recording.Store(true)
}

// StopRecording ends the take and returns its event count
func (in *instrument) StopRecording() int {
	if in.rec == nil {
		return 0
	}
	n := in.rec.Stop()
	in.studio.RefreshMetrics()
	return n
}

func (in *instrument) params(freq, velocity float64, index int) recipe.Params {
	return recipe.Params{
		Pitch:    freq,
		Velocity: velocity,
		Volume:   in.studio.level(in.name),
		Index:    index,
	}
}

// play builds a config under the rng lock and triggers it
func (in *instrument) play(build builder, p recipe.Params, key string) (*voice.Voice, error) {
	in.mu.Lock()
	p.Rand = in.rng
	cfg, freq, err := build(p)
	in.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return in.engine.Trigger(cfg, freq, key)
}

func (in *instrument) noteOn(note string) {
	if in.rec != nil {
		in.rec.NoteOn(note)
	}
}

func (in *instrument) noteOff(note string) {
	if in.rec != nil {
		in.rec.NoteOff(note)
	}
}
