// Package studio wires the instruments onto one shared audio context
package studio

import (
	"log"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/noise"
	"github.com/lixenwraith/vi-studio/status"
)

var ErrNotRunning = errors.New("studio not running")

// Studio owns every instrument and the global volume they read at trigger time
type Studio struct {
	ctx     *audio.Context
	cfg     *Config
	metrics *status.Registry
	bank    *noise.Bank

	volume    *status.AtomicFloat
	nodes     *atomic.Int64
	recording *atomic.Bool

	Piano      *Piano
	Guitar     *Guitar
	Drums      *Drums
	Percussion *Percussion
	Synth      *Synth

	instruments []*instrument
	closers     []func()

	mu      sync.Mutex
	seed    uint64
	running atomic.Bool
	stopped bool
}

// New builds the studio on ctx; nodes are created immediately, sound starts once the context renders
func New(ctx *audio.Context, cfg *Config, metrics *status.Registry) (_ *Studio, err error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = status.NewRegistry()
	}
	s := &Studio{
		ctx:       ctx,
		cfg:       cfg,
		metrics:   metrics,
		volume:    metrics.Floats.Get(status.StudioVolume),
		nodes:     metrics.Int(status.AudioNodes),
		recording: metrics.Bools.Get(status.StudioRecording),
		seed:      cfg.Seed,
	}
	s.volume.Set(clamp01(cfg.Volume))
	s.bank = noise.NewBank(ctx.SampleRate(), s.newRand())

	defer func() {
		if err != nil {
			s.teardown()
		}
	}()

	if s.Piano, err = newPiano(s); err != nil {
		return nil, errors.Wrap(err, "piano")
	}
	if s.Guitar, err = newGuitar(s); err != nil {
		return nil, errors.Wrap(err, "guitar")
	}
	if s.Drums, err = newDrums(s); err != nil {
		return nil, errors.Wrap(err, "drums")
	}
	if s.Percussion, err = newPercussion(s); err != nil {
		return nil, errors.Wrap(err, "percussion")
	}
	if s.Synth, err = newSynth(s); err != nil {
		return nil, errors.Wrap(err, "synth")
	}

	s.applyVolume()
	return s, nil
}

// newRand hands out generators; a fixed seed makes every instrument repeatable
func (s *Studio) newRand() *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seed == 0 {
		return noise.NewRand()
	}
	s.seed++
	return noise.NewSeeded(s.seed)
}

// Name implements Service
func (s *Studio) Name() string {
	return "studio"
}

// Dependencies implements Service
func (s *Studio) Dependencies() []string {
	return []string{"audio"}
}

// Init implements Service
// args[0]: float64 - global volume 0.0-1.0
func (s *Studio) Init(args ...any) error {
	if len(args) > 0 {
		if vol, ok := args[0].(float64); ok {
			s.SetVolume(vol)
		}
	}
	return nil
}

// Start implements Service
func (s *Studio) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.Wrap(ErrNotRunning, "studio stopped")
	}
	s.running.Store(true)
	s.RefreshMetrics()
	return nil
}

// Stop implements Service; halts sequencers and releases every node
func (s *Studio) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.running.Store(false)
	s.teardown()
	return nil
}

func (s *Studio) teardown() {
	if s.Drums != nil {
		s.Drums.Stop()
		s.Drums.StopMetronome()
	}
	if s.Guitar != nil {
		s.Guitar.StopPattern()
	}
	if s.Synth != nil {
		s.Synth.StopSequence()
	}
	for _, in := range s.instruments {
		in.engine.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// IsRunning reports whether Start succeeded and Stop has not been called
func (s *Studio) IsRunning() bool {
	return s.running.Load()
}

// Context returns the shared audio context
func (s *Studio) Context() *audio.Context {
	return s.ctx
}

// Metrics returns the studio metrics registry
func (s *Studio) Metrics() *status.Registry {
	return s.metrics
}

// Config returns the settings the studio was built with
func (s *Studio) Config() Config {
	return *s.cfg
}

// Volume returns the global volume
func (s *Studio) Volume() float64 {
	return s.volume.Get()
}

// SetVolume sets the global volume, clamped to [0,1], and returns the applied value
// In snapshot mode sounding voices keep their level; in live mode every bus follows
func (s *Studio) SetVolume(v float64) float64 {
	v = clamp01(v)
	s.volume.Set(v)
	s.applyVolume()
	return v
}

// VolumeMode returns how the global volume reaches voices
func (s *Studio) VolumeMode() core.VolumeMode {
	return s.cfg.VolumeMode
}

func (s *Studio) applyVolume() {
	if s.cfg.VolumeMode != core.VolumeLive {
		return
	}
	v := s.volume.Get()
	for _, in := range s.instruments {
		if err := in.engine.SetBusGain(v); err != nil {
			log.Printf("studio: %s volume: %v", in.name, err)
		}
	}
}

// level is the volume a recipe reads for instrument name
func (s *Studio) level(name string) float64 {
	inst := 1.0
	if v, ok := s.cfg.Volumes[name]; ok {
		inst = v
	}
	if s.cfg.VolumeMode == core.VolumeLive {
		return inst
	}
	return s.volume.Get() * inst
}

// SetBPM retempos every sequencer and returns the applied value
func (s *Studio) SetBPM(bpm int) int {
	s.Guitar.SetBPM(bpm)
	s.Synth.SetBPM(bpm)
	return s.Drums.SetBPM(bpm)
}

// BPM returns the shared tempo
func (s *Studio) BPM() int {
	return s.Drums.BPM()
}

// StopAll releases every sounding voice on every instrument
func (s *Studio) StopAll() {
	for _, in := range s.instruments {
		in.engine.StopAll()
	}
}

// ActiveVoices sums the voices counted toward each instrument's cap
func (s *Studio) ActiveVoices() int {
	n := 0
	for _, in := range s.instruments {
		n += in.engine.ActiveCount()
	}
	return n
}

// RefreshMetrics publishes gauges that are not updated on their own
func (s *Studio) RefreshMetrics() {
	s.nodes.Store(int64(s.ctx.LiveNodes()))
	rec := false
	for _, in := range s.instruments {
		if in.rec != nil && in.rec.IsRecording() {
			rec = true
		}
	}
	s.recording.Store(rec)
}

func (s *Studio) logf(format string, args ...any) {
	log.Printf("studio: "+format, args...)
}
