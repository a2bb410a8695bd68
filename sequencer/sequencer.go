// Package sequencer loops step patterns against the audio clock
package sequencer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/vi-studio/clock"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/status"
)

// Step is one active cell reached by the sequencer
type Step struct {
	Track int
	Index int
	Lane  Track
	At    time.Duration
}

// Sequencer fires the active cells of a pattern at a fixed step interval
// Steps are scheduled one at a time on the clock; nothing sleeps
type Sequencer struct {
	mu  sync.Mutex
	clk *clock.Scheduler
	fn  func(Step)

	pattern *Pattern
	bpm     int
	step    int // next step to fire

	running bool
	timer   clock.ID
	gen     uint64 // invalidates callbacks from an earlier run

	// Deadlines are computed from an anchor so a non-integer interval does not drift
	anchor time.Duration
	ticks  int64

	steps *atomic.Int64
}

// New creates a stopped sequencer; fn receives every active cell with no lock held
func New(clk *clock.Scheduler, p *Pattern, bpm int, fn func(Step), metrics *status.Registry) (*Sequencer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Sequencer{
		clk:     clk,
		fn:      fn,
		pattern: p,
		bpm:     clampBPM(bpm),
		steps:   metrics.Int(status.SequencerSteps),
	}, nil
}

func clampBPM(bpm int) int {
	return max(constant.MinBPM, min(bpm, constant.MaxBPM))
}

// interval is the duration of n steps at the current tempo
func (s *Sequencer) interval(n int64) time.Duration {
	return time.Duration(n) * time.Minute / time.Duration(s.bpm*s.pattern.StepsPerBeat)
}

// Interval returns the current step duration
func (s *Sequencer) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval(1)
}

// Start begins looping from the current step; the first step fires one interval later
// Starting a running sequencer is a no-op
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.gen++
	s.anchor = s.clk.Now()
	s.ticks = 0
	s.schedule()
}

// Stop cancels the pending step; sounding voices ring out
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.gen++
	s.clk.Cancel(s.timer)
	s.timer = 0
}

// Reset stops and rewinds to step zero
func (s *Sequencer) Reset() {
	s.Stop()
	s.mu.Lock()
	s.step = 0
	s.mu.Unlock()
}

// IsRunning returns sequencer state
func (s *Sequencer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Step returns the index of the next step to fire
func (s *Sequencer) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// BPM returns the tempo
func (s *Sequencer) BPM() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm
}

// SetBPM clamps and applies the tempo from the next step on, returns the applied value
func (s *Sequencer) SetBPM(bpm int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	bpm = clampBPM(bpm)
	if bpm == s.bpm {
		return bpm
	}
	s.bpm = bpm
	if s.running {
		s.clk.Cancel(s.timer)
		s.anchor = s.clk.Now()
		s.ticks = 0
		s.schedule()
	}
	return bpm
}

// Pattern returns the looping pattern
func (s *Sequencer) Pattern() *Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern
}

// SetPattern swaps the pattern, wrapping the step index into its length
func (s *Sequencer) SetPattern(p *Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tempoChange := p.StepsPerBeat != s.pattern.StepsPerBeat
	s.pattern = p
	s.step %= p.Len()
	if s.running && tempoChange {
		s.clk.Cancel(s.timer)
		s.anchor = s.clk.Now()
		s.ticks = 0
		s.schedule()
	}
	return nil
}

// schedule arms the next step, caller holds mu
func (s *Sequencer) schedule() {
	gen := s.gen
	s.timer = s.clk.At(s.anchor+s.interval(s.ticks+1), func() { s.tick(gen) })
}

func (s *Sequencer) tick(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	now := s.clk.Now()
	idx := s.step
	var hits []Step
	for i, t := range s.pattern.Tracks {
		if t.Steps[idx] {
			hits = append(hits, Step{Track: i, Index: idx, Lane: t, At: now})
		}
	}
	s.step = (idx + 1) % s.pattern.Len()
	s.ticks++
	s.schedule()
	fn := s.fn
	s.mu.Unlock()

	s.steps.Add(1)
	for _, h := range hits {
		fn(h)
	}
}
