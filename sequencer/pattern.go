package sequencer

import (
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
)

var (
	ErrEmptyPattern   = errors.New("pattern has no steps")
	ErrUnevenPattern  = errors.New("pattern tracks differ in length")
	ErrUnknownPattern = errors.New("unknown pattern")
)

// Track is one instrument lane of a pattern
type Track struct {
	Instrument core.Instrument
	Note       string // played note for pitched lanes, empty for drums
	Steps      []bool
}

// Pattern is a loop of equally spaced steps over one or more tracks
type Pattern struct {
	Name         string
	StepsPerBeat int
	Tracks       []Track
}

// Len returns the step count of the loop
func (p *Pattern) Len() int {
	if len(p.Tracks) == 0 {
		return 0
	}
	return len(p.Tracks[0].Steps)
}

// Validate checks the pattern can loop
func (p *Pattern) Validate() error {
	if p.StepsPerBeat <= 0 || p.Len() == 0 {
		return ErrEmptyPattern
	}
	for _, t := range p.Tracks {
		if len(t.Steps) != p.Len() {
			return errors.Wrapf(ErrUnevenPattern, "%s has %d steps, want %d", t.Instrument, len(t.Steps), p.Len())
		}
	}
	return nil
}

// Hit places drums at a time in beats
type Hit struct {
	Time  float64
	Drums []core.Instrument
}

// Quantize lays hits onto a grid of stepsPerBeat over beats, one track per drum in first-use order
// Times round to the nearest step so triplet feels written as 0.33 land on the grid
func Quantize(name string, hits []Hit, stepsPerBeat, beats int) *Pattern {
	n := stepsPerBeat * beats
	p := &Pattern{Name: name, StepsPerBeat: stepsPerBeat}
	lane := make(map[core.Instrument]int)

	for _, h := range hits {
		step := int(math.Round(h.Time * float64(stepsPerBeat)))
		if step < 0 || step >= n {
			continue
		}
		for _, d := range h.Drums {
			i, ok := lane[d]
			if !ok {
				i = len(p.Tracks)
				lane[d] = i
				p.Tracks = append(p.Tracks, Track{Instrument: d, Steps: make([]bool, n)})
			}
			p.Tracks[i].Steps[step] = true
		}
	}
	return p
}

// Grid is a single pitched lane, the shape of the synth step sequencer
func Grid(name string, instr core.Instrument, note string, steps []bool) *Pattern {
	return &Pattern{
		Name:         name,
		StepsPerBeat: constant.SynthStepsPerBeat,
		Tracks:       []Track{{Instrument: instr, Note: note, Steps: append([]bool(nil), steps...)}},
	}
}

// Metronome is a one-bar click with the accent on the downbeat
func Metronome() *Pattern {
	return &Pattern{
		Name:         "metronome",
		StepsPerBeat: 1,
		Tracks:       []Track{{Instrument: core.InstrClick, Steps: []bool{true, true, true, true}}},
	}
}

var (
	patterns  = make(map[string]*Pattern)
	patternMu sync.RWMutex
)

// Register adds or replaces a named pattern
func Register(p *Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	patternMu.Lock()
	patterns[p.Name] = p
	patternMu.Unlock()
	return nil
}

// Lookup retrieves a pattern by name
func Lookup(name string) (*Pattern, error) {
	patternMu.RLock()
	defer patternMu.RUnlock()
	p, ok := patterns[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownPattern, name)
	}
	return p, nil
}

// Names returns the registered pattern names sorted
func Names() []string {
	patternMu.RLock()
	defer patternMu.RUnlock()
	names := make([]string, 0, len(patterns))
	for n := range patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const (
	kick  = core.InstrKick
	snare = core.InstrSnare
	hihat = core.InstrHihatClosed
	ride  = core.InstrRide
)

func beats(name string, hits ...Hit) *Pattern {
	return Quantize(name, hits, constant.BeatStepsPerBeat, constant.BeatPatternBeats)
}

func at(t float64, drums ...core.Instrument) Hit {
	return Hit{Time: t, Drums: drums}
}

func init() {
	defaults := []*Pattern{
		beats("basic",
			at(0, kick), at(0.25, hihat), at(0.5, snare, hihat), at(0.75, hihat),
			at(1, kick), at(1.25, hihat), at(1.5, snare, hihat), at(1.75, hihat)),
		beats("funk",
			at(0, kick), at(0.125, hihat), at(0.25, snare), at(0.375, hihat),
			at(0.5, kick, hihat), at(0.75, snare), at(0.875, kick),
			at(1, hihat), at(1.125, kick), at(1.25, snare, hihat),
			at(1.5, kick), at(1.625, hihat), at(1.75, snare), at(1.875, hihat)),
		beats("jazz",
			at(0, kick, ride), at(0.33, ride), at(0.5, snare), at(0.66, ride),
			at(1, kick, ride), at(1.33, ride), at(1.5, snare), at(1.66, ride)),
		beats("latin",
			at(0, kick), at(0.25, hihat), at(0.5, snare), at(0.625, kick), at(0.75, hihat),
			at(1, kick), at(1.25, hihat), at(1.5, snare), at(1.75, hihat)),
		beats("shuffle",
			at(0, kick, hihat), at(0.33, hihat), at(0.5, snare), at(0.83, hihat),
			at(1, kick, hihat), at(1.33, hihat), at(1.5, snare), at(1.83, hihat)),
		beats("breakbeat",
			at(0, kick), at(0.125, hihat), at(0.25, snare), at(0.375, kick),
			at(0.5, kick), at(0.625, hihat), at(0.75, snare), at(0.875, hihat),
			at(1, kick), at(1.25, snare), at(1.375, kick),
			at(1.5, snare), at(1.625, hihat), at(1.75, snare), at(1.875, hihat)),
		Metronome(),
	}
	for _, p := range defaults {
		if err := Register(p); err != nil {
			panic(err)
		}
	}
}
