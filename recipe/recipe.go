// Package recipe turns instrument parameters into voice configurations
// Recipes are pure: they build a voice.Config and never touch the audio graph
package recipe

import (
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/voice"
)

var ErrUnknownInstrument = errors.New("unknown instrument")

// Params are the per-trigger inputs of a recipe
type Params struct {
	Pitch    float64 // Hz, zero selects the recipe default
	Velocity float64 // clamped to [0,1]
	Volume   float64 // global volume snapshot, clamped to [0,1]
	Index    int     // string number for plucks, beat number for clicks
	Rand     *rand.Rand
}

// Level is velocity times volume after clamping
func (p Params) Level() float64 {
	return clamp01(p.Velocity) * clamp01(p.Volume)
}

func (p Params) float() float64 {
	if p.Rand != nil {
		return p.Rand.Float64()
	}
	return rand.Float64()
}

// pitchOr returns the requested pitch, or def when none was given
// Invalid pitches pass through so the engine rejects them
func (p Params) pitchOr(def float64) float64 {
	if p.Pitch != 0 {
		return p.Pitch
	}
	return def
}

// Recipe builds a voice config and the frequency to trigger it at
type Recipe func(p Params) (voice.Config, float64)

var registry = map[core.Instrument]Recipe{
	core.InstrKick:        Kick,
	core.InstrSnare:       Snare,
	core.InstrHihatClosed: ClosedHihat,
	core.InstrHihatOpen:   OpenHihat,
	core.InstrCrash:       Crash,
	core.InstrRide:        Ride,
	core.InstrTom1:        Tom1,
	core.InstrTom2:        Tom2,
	core.InstrTom3:        Tom3,
	core.InstrPluck:       Pluck,
	core.InstrPiano:       Piano,
	core.InstrSynth:       func(p Params) (voice.Config, float64) { return Synth(DefaultPreset, p) },
	core.InstrClick:       Click,
	core.InstrMembrane:    kindRecipe(core.InstrMembrane),
	core.InstrMetallic:    kindRecipe(core.InstrMetallic),
	core.InstrWood:        kindRecipe(core.InstrWood),
	core.InstrNoise:       kindRecipe(core.InstrNoise),
	core.InstrSlap:        kindRecipe(core.InstrSlap),
	core.InstrHandSnare:   kindRecipe(core.InstrHandSnare),
	core.InstrBrush:       kindRecipe(core.InstrBrush),
	core.InstrAtmosphere:  kindRecipe(core.InstrAtmosphere),
}

// Lookup returns the recipe registered for instr
func Lookup(instr core.Instrument) (Recipe, bool) {
	r, ok := registry[instr]
	return r, ok
}

// Build runs the recipe for instr
func Build(instr core.Instrument, p Params) (voice.Config, float64, error) {
	r, ok := registry[instr]
	if !ok {
		return voice.Config{}, 0, errors.Wrapf(ErrUnknownInstrument, "instrument %d", instr)
	}
	cfg, freq := r(p)
	return cfg, freq, nil
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
