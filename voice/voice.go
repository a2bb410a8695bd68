package voice

import (
	"math"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/clock"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/envelope"
)

// generator is a schedulable sound source
type generator interface {
	Start(t float64) error
	Stop(t float64) error
}

type disposer interface {
	Dispose()
}

// directLayer is a layer with its own envelope feeding the bus
type directLayer struct {
	gain *audio.Gain
	env  envelope.Spec
}

// Voice is one sounding event and the graph it owns exclusively
// Fields are guarded by the owning Engine's mutex
type Voice struct {
	id     uint64
	key    string
	engine *Engine
	cfg    Config
	pitch  float64

	state core.VoiceState
	start float64
	stop  float64 // generator hard stop
	stole bool

	amp    *audio.Gain
	filter *audio.Biquad
	direct []directLayer
	gens   []generator
	nodes  []disposer
	timers []clock.ID
}

// ID returns the trigger sequence number
func (v *Voice) ID() uint64 {
	return v.id
}

// Key returns the note key, empty for one-shots
func (v *Voice) Key() string {
	return v.key
}

// Pitch returns the voice frequency in Hz
func (v *Voice) Pitch() float64 {
	return v.pitch
}

// StartTime returns the audio time the voice was triggered at
func (v *Voice) StartTime() float64 {
	return v.start
}

// State returns the lifecycle state
func (v *Voice) State() core.VoiceState {
	v.engine.mu.Lock()
	defer v.engine.mu.Unlock()
	return v.state
}

// Level returns the current amplitude of the voice's gain stages
func (v *Voice) Level() float64 {
	v.engine.mu.Lock()
	defer v.engine.mu.Unlock()
	return v.level(v.engine.ctx.CurrentTime())
}

func (v *Voice) level(t float64) float64 {
	if v.state == core.VoiceDisposed {
		return 0
	}
	sum := 0.0
	if v.amp != nil && v.hasAmpLayers() {
		sum += math.Abs(v.amp.Gain().ValueAt(t))
	}
	for _, d := range v.direct {
		sum += math.Abs(d.gain.Gain().ValueAt(t))
	}
	return sum
}

func (v *Voice) hasAmpLayers() bool {
	for i := range v.cfg.Layers {
		if v.cfg.Layers[i].Envelope == nil {
			return true
		}
	}
	return false
}

// release schedules the release ramps from t and returns when the tail ends
// Every stage is released even if an earlier one fails; the first error is returned
func (v *Voice) release(t float64) (float64, error) {
	var first error
	keep := func(err error) {
		if first == nil {
			first = err
		}
	}

	end := t
	if v.hasAmpLayers() {
		keep(envelope.Release(v.amp.Gain(), t, v.cfg.Envelope.Release))
		end = t + v.cfg.Envelope.Release
	}
	for _, d := range v.direct {
		keep(envelope.Release(d.gain.Gain(), t, d.env.Release))
		end = math.Max(end, t+d.env.Release)
	}
	if v.filter != nil && v.cfg.Filter.Envelope != nil {
		keep(envelope.ReleaseCutoff(v.filter.Frequency(), v.cfg.Filter.Cutoff, *v.cfg.Filter.Envelope, t))
	}
	return end, first
}

// fade ramps every gain stage to silence over d from t
func (v *Voice) fade(t, d float64) error {
	gains := []*audio.Param{v.amp.Gain()}
	for _, l := range v.direct {
		gains = append(gains, l.gain.Gain())
	}
	var first error
	for _, g := range gains {
		if err := rampFrom(g, t, 0, t+d); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// stopAt moves the generator hard stop earlier to t
func (v *Voice) stopAt(t float64) error {
	if t >= v.stop {
		return nil
	}
	v.stop = t
	var first error
	for _, g := range v.gens {
		if err := g.Stop(t); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// teardown disposes every node the voice owns
func (v *Voice) teardown() {
	for i := len(v.nodes) - 1; i >= 0; i-- {
		v.nodes[i].Dispose()
	}
	v.nodes = nil
	v.gens = nil
}
