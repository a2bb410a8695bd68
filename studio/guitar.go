package studio

import (
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/clock"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/effects"
	"github.com/lixenwraith/vi-studio/pitch"
	"github.com/lixenwraith/vi-studio/sequencer"
	"github.com/lixenwraith/vi-studio/voice"
)

var (
	ErrUnknownTuning = errors.New("unknown tuning")
	ErrInvalidFret   = errors.New("string or fret out of range")
	ErrUnknownChord  = errors.New("unknown chord")
	ErrInvalidStroke = errors.New("invalid strum stroke")
)

// Open string notes, low string first
var Tunings = map[string][constant.GuitarStrings]string{
	"standard": {"E2", "A2", "D3", "G3", "B3", "E4"},
	"drop-d":   {"D2", "A2", "D3", "G3", "B3", "E4"},
	"open-g":   {"D2", "G2", "D3", "G3", "B3", "D4"},
	"dadgad":   {"D2", "A2", "D3", "G3", "A3", "D4"},
}

const DefaultTuning = "standard"

// Chord is a fingering, low string first; a negative fret mutes the string
type Chord struct {
	Name  string
	Frets [constant.GuitarStrings]int
}

var chordLibrary = map[string][]Chord{
	"major": {
		{"C", [6]int{3, 2, 0, 1, 0, 0}},
		{"D", [6]int{2, 0, 0, 2, 3, 2}},
		{"E", [6]int{0, 2, 2, 1, 0, 0}},
		{"F", [6]int{1, 3, 3, 2, 1, 1}},
		{"G", [6]int{3, 2, 0, 0, 3, 3}},
		{"A", [6]int{0, 0, 2, 2, 2, 0}},
		{"B", [6]int{2, 2, 4, 4, 4, 2}},
	},
	"minor": {
		{"Am", [6]int{0, 0, 2, 2, 1, 0}},
		{"Bm", [6]int{2, 2, 4, 4, 3, 2}},
		{"Cm", [6]int{3, 3, 5, 5, 4, 3}},
		{"Dm", [6]int{1, 0, 0, 2, 3, 1}},
		{"Em", [6]int{0, 2, 2, 0, 0, 0}},
		{"Fm", [6]int{1, 3, 3, 1, 1, 1}},
		{"Gm", [6]int{3, 5, 5, 3, 3, 3}},
	},
	"seventh": {
		{"C7", [6]int{3, 2, 3, 1, 0, 0}},
		{"D7", [6]int{2, 0, 0, 2, 1, 2}},
		{"E7", [6]int{0, 2, 0, 1, 0, 0}},
		{"F7", [6]int{1, 3, 1, 2, 1, 1}},
		{"G7", [6]int{3, 2, 0, 0, 0, 1}},
		{"A7", [6]int{0, 0, 2, 0, 2, 0}},
		{"B7", [6]int{2, 1, 2, 0, 2, 2}},
	},
	"extended": {
		{"Cmaj7", [6]int{3, 2, 0, 0, 0, 0}},
		{"Dm7", [6]int{1, 0, 0, 2, 1, 1}},
		{"Em7", [6]int{0, 2, 0, 0, 0, 0}},
		{"Fmaj7", [6]int{1, 3, 2, 2, 1, 0}},
		{"Gmaj7", [6]int{3, 2, 0, 0, 0, 2}},
		{"Am7", [6]int{0, 0, 2, 0, 1, 0}},
	},
}

// ChordCategories returns the chord library sections, sorted
func ChordCategories() []string {
	names := make([]string, 0, len(chordLibrary))
	for n := range chordLibrary {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Chords returns the chords of a library section
func Chords(category string) []Chord {
	return slices.Clone(chordLibrary[category])
}

// LookupChord finds a chord by name in any section
func LookupChord(name string) (Chord, bool) {
	for _, cs := range chordLibrary {
		for _, c := range cs {
			if c.Name == name {
				return c, true
			}
		}
	}
	return Chord{}, false
}

// Stroke is one beat subdivision of a strum pattern
type Stroke int

const (
	StrokeDown Stroke = iota
	StrokeUp
	StrokeMute
)

// ParseStrokes reads a pattern such as "down-up-mute-up"
func ParseStrokes(pattern string) ([]Stroke, error) {
	parts := strings.Split(pattern, "-")
	out := make([]Stroke, 0, len(parts))
	for _, p := range parts {
		switch strings.TrimSpace(p) {
		case "down":
			out = append(out, StrokeDown)
		case "up":
			out = append(out, StrokeUp)
		case "mute":
			out = append(out, StrokeMute)
		default:
			return nil, errors.Wrapf(ErrInvalidStroke, "%q", p)
		}
	}
	return out, nil
}

// Guitar plucks strings through its own effects chain
type Guitar struct {
	*instrument
	chain *effects.Chain

	mu       sync.Mutex
	tuning   string
	open     [constant.GuitarStrings]float64
	strums   []clock.ID
	strumEnd float64 // last scheduled string, seconds
	chord    Chord
	strokes  []Stroke
	pattern  *sequencer.Sequencer
}

// GuitarEffects is the default guitar chain: a short room, delay ready but off
func GuitarEffects() effects.Settings {
	return effects.Settings{
		Reverb: effects.Reverb{Enabled: true, Size: 20},
		Delay:  effects.DelaySettings{Time: 300, Feedback: 30},
	}
}

func newGuitar(s *Studio) (*Guitar, error) {
	chain, err := effects.NewChain(s.ctx, s.ctx.Destination(), GuitarEffects(), s.newRand())
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, chain.Dispose)

	in, err := s.newInstrument(NameGuitar, voice.Options{Output: chain.Input()}, false)
	if err != nil {
		return nil, err
	}
	g := &Guitar{instrument: in, chain: chain}
	if err := g.SetTuning(DefaultTuning); err != nil {
		return nil, err
	}

	strum, _ := ParseStrokes("down-up-down-up")
	g.strokes = strum
	g.chord, _ = LookupChord("G")
	g.pattern, err = sequencer.New(s.ctx.Clock(), g.strumPattern(), s.cfg.BPM, g.stroke, s.metrics)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Effects returns the guitar chain
func (g *Guitar) Effects() *effects.Chain {
	return g.chain
}

// SetTuning retunes the open strings
func (g *Guitar) SetTuning(name string) error {
	notes, ok := Tunings[name]
	if !ok {
		return errors.Wrap(ErrUnknownTuning, name)
	}
	var open [constant.GuitarStrings]float64
	for i, n := range notes {
		f, err := pitch.Frequency(n)
		if err != nil {
			return err
		}
		open[i] = f
	}
	g.mu.Lock()
	g.tuning = name
	g.open = open
	g.mu.Unlock()
	return nil
}

func (g *Guitar) Tuning() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tuning
}

// FretFrequency is the open string pitch raised one semitone per fret
func (g *Guitar) FretFrequency(str, fret int) (float64, error) {
	if str < 0 || str >= constant.GuitarStrings || fret < 0 || fret > constant.GuitarMaxFret {
		return 0, errors.Wrapf(ErrInvalidFret, "string %d fret %d", str, fret)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open[str] * math.Pow(2, float64(fret)/12), nil
}

// PlayFret plucks one string
func (g *Guitar) PlayFret(str, fret int) error {
	f, err := g.FretFrequency(str, fret)
	if err != nil {
		return err
	}
	_, err = g.play(recipeFor(core.InstrPluck), g.params(f, constant.GuitarVelocity, str), "")
	return err
}

// Strum plucks every fretted string of frets, StrumStagger apart
// Down strums start on the low string, up strums on the high string
func (g *Guitar) Strum(frets [constant.GuitarStrings]int, up bool) error {
	for s, f := range frets {
		if f > constant.GuitarMaxFret {
			return errors.Wrapf(ErrInvalidFret, "string %d fret %d", s, f)
		}
	}

	ctx := g.studio.ctx
	now := ctx.CurrentTime()
	order := []int{0, 1, 2, 3, 4, 5}
	if up {
		slices.Reverse(order)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if now > g.strumEnd {
		g.strums = g.strums[:0]
	}

	offset := 0
	for _, s := range order {
		fret := frets[s]
		if fret < 0 {
			continue
		}
		at := now + (time.Duration(offset) * constant.StrumStagger).Seconds()
		offset++
		g.strumEnd = max(g.strumEnd, at)
		g.strums = append(g.strums, ctx.At(at, func() {
			if err := g.PlayFret(s, fret); err != nil {
				g.studio.logf("guitar string %d fret %d: %v", s, fret, err)
			}
		}))
	}
	return nil
}

// PlayChord strums a chord from the library
func (g *Guitar) PlayChord(name string, up bool) error {
	c, ok := LookupChord(name)
	if !ok {
		return errors.Wrap(ErrUnknownChord, name)
	}
	g.mu.Lock()
	g.chord = c
	g.mu.Unlock()
	return g.Strum(c.Frets, up)
}

// Chord returns the last played chord
func (g *Guitar) Chord() Chord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chord
}

// CancelStrums drops strings of a strum that have not sounded yet
func (g *Guitar) CancelStrums() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.strums {
		g.studio.ctx.Cancel(id)
	}
	g.strums = nil
}

// strumPattern lays the strokes over one beat
func (g *Guitar) strumPattern() *sequencer.Pattern {
	steps := make([]bool, len(g.strokes))
	for i, s := range g.strokes {
		steps[i] = s != StrokeMute
	}
	return &sequencer.Pattern{
		Name:         "strum",
		StepsPerBeat: len(g.strokes),
		Tracks:       []sequencer.Track{{Instrument: core.InstrPluck, Steps: steps}},
	}
}

func (g *Guitar) stroke(st sequencer.Step) {
	g.mu.Lock()
	c := g.chord
	up := st.Index < len(g.strokes) && g.strokes[st.Index] == StrokeUp
	g.mu.Unlock()
	if err := g.Strum(c.Frets, up); err != nil {
		g.studio.logf("guitar strum: %v", err)
	}
}

// SetStrokes replaces the strum pattern, e.g. "down-down-up-mute"
func (g *Guitar) SetStrokes(pattern string) error {
	strokes, err := ParseStrokes(pattern)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.strokes = strokes
	p := g.strumPattern()
	g.mu.Unlock()
	return g.pattern.SetPattern(p)
}

// StartPattern repeats the strum pattern over the current chord every beat
func (g *Guitar) StartPattern() {
	g.pattern.Start()
}

func (g *Guitar) StopPattern() {
	g.pattern.Stop()
	g.CancelStrums()
}

func (g *Guitar) PatternPlaying() bool {
	return g.pattern.IsRunning()
}

// SetBPM sets the strum pattern tempo and returns the applied value
func (g *Guitar) SetBPM(bpm int) int {
	return g.pattern.SetBPM(bpm)
}
