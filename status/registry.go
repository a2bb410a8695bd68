package status

import (
	"strconv"
	"sync/atomic"
)

// Metric names published by the voice engine and sequencers
const (
	VoiceActive     = "voice.active"
	VoiceTriggered  = "voice.triggered"
	VoiceStolen     = "voice.stolen"
	VoiceDisposed   = "voice.disposed"
	VoiceErrors     = "voice.errors"
	SequencerSteps  = "sequencer.steps"
	AudioSilent     = "audio.silent"
	AudioNodes      = "audio.nodes"
	StudioVolume    = "studio.volume"
	StudioPreset    = "studio.preset"
	StudioPattern   = "studio.pattern"
	StudioRecording = "studio.recording"
)

// Registry is the studio-wide metrics facade
// Producers cache cell pointers at construction and write atomics directly
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// Int returns the integer counter for name, nil-safe for a nil registry
func (r *Registry) Int(name string) *atomic.Int64 {
	if r == nil {
		return new(atomic.Int64)
	}
	return r.Ints.Get(name)
}

// Sample is one formatted metric
type Sample struct {
	Name  string
	Value string
}

// Snapshot formats every metric, grouped by kind then sorted by name
func (r *Registry) Snapshot() []Sample {
	out := make([]Sample, 0, r.Len())
	r.Bools.Range(func(k string, v *atomic.Bool) {
		out = append(out, Sample{k, strconv.FormatBool(v.Load())})
	})
	r.Ints.Range(func(k string, v *atomic.Int64) {
		out = append(out, Sample{k, strconv.FormatInt(v.Load(), 10)})
	})
	r.Floats.Range(func(k string, v *AtomicFloat) {
		out = append(out, Sample{k, strconv.FormatFloat(v.Get(), 'f', 2, 64)})
	})
	r.Strings.Range(func(k string, v *AtomicString) {
		out = append(out, Sample{k, v.Load()})
	})
	return out
}

// Len returns the number of metrics across all kinds
func (r *Registry) Len() int {
	return r.Bools.Len() + r.Ints.Len() + r.Floats.Len() + r.Strings.Len()
}
