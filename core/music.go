package core

import "strings"

// Instrument identifies a timbre recipe
type Instrument int

const (
	InstrKick Instrument = iota
	InstrSnare
	InstrHihatClosed
	InstrHihatOpen
	InstrCrash
	InstrRide
	InstrTom1
	InstrTom2
	InstrTom3
	InstrPluck
	InstrPiano
	InstrSynth
	InstrClick
	// Hand percussion kinds
	InstrMembrane
	InstrMetallic
	InstrWood
	InstrNoise
	InstrSlap
	InstrHandSnare
	InstrBrush
	InstrAtmosphere
	InstrumentCount
)

var instrumentNames = [...]string{
	"kick", "snare", "hihat", "openhat", "crash", "ride", "tom1", "tom2", "tom3",
	"pluck", "piano", "synth", "click",
	"membrane", "metallic", "wood", "noise", "slap", "handsnare", "brush", "atmosphere",
}

func (i Instrument) String() string {
	if i >= 0 && int(i) < len(instrumentNames) {
		return instrumentNames[i]
	}
	return "unknown"
}

// IsDrum returns true for drum kit pieces
func (i Instrument) IsDrum() bool {
	return i >= InstrKick && i <= InstrTom3
}

// IsOneShot returns true for instruments that ring out without a held key
func (i Instrument) IsOneShot() bool {
	switch i {
	case InstrPiano, InstrSynth:
		return false
	}
	return i >= 0 && i < InstrumentCount
}

// ParseInstrument resolves a name, accepting the drum pad aliases
func ParseInstrument(name string) (Instrument, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "hihat-closed", "closedhat":
		return InstrHihatClosed, true
	case "hihat-open", "open-hihat":
		return InstrHihatOpen, true
	}
	for i, n := range instrumentNames {
		if n == name {
			return Instrument(i), true
		}
	}
	return 0, false
}

// Waveform is the oscillator shape class
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
	WaveNoise
)

var waveformNames = [...]string{"sine", "square", "sawtooth", "triangle", "noise"}

func (w Waveform) String() string {
	if w >= 0 && int(w) < len(waveformNames) {
		return waveformNames[w]
	}
	return "unknown"
}

// ParseWaveform resolves a waveform name
func ParseWaveform(name string) (Waveform, bool) {
	for i, n := range waveformNames {
		if n == strings.ToLower(name) {
			return Waveform(i), true
		}
	}
	return 0, false
}

// FilterType selects a biquad response
type FilterType int

const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
	FilterPeaking
	FilterLowshelf
	FilterHighshelf
	FilterAllpass
)

var filterNames = [...]string{"lowpass", "highpass", "bandpass", "notch", "peaking", "lowshelf", "highshelf", "allpass"}

func (f FilterType) String() string {
	if f >= 0 && int(f) < len(filterNames) {
		return filterNames[f]
	}
	return "unknown"
}

// ParseFilterType resolves a filter name
func ParseFilterType(name string) (FilterType, bool) {
	for i, n := range filterNames {
		if n == strings.ToLower(name) {
			return FilterType(i), true
		}
	}
	return 0, false
}

// VoiceState is the lifecycle of a sounding voice
// Transitions only move forward: idle -> sounding -> releasing -> disposed
type VoiceState int

const (
	VoiceIdle VoiceState = iota
	VoiceSounding
	VoiceReleasing
	VoiceDisposed
)

func (s VoiceState) String() string {
	names := [...]string{"idle", "sounding", "releasing", "disposed"}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// Live returns true until the voice is disposed
func (s VoiceState) Live() bool {
	return s == VoiceSounding || s == VoiceReleasing
}

// VoiceStealStrategy determines how to handle voice exhaustion
type VoiceStealStrategy int

const (
	StealOldest VoiceStealStrategy = iota
	StealQuietest
	StealNone // Reject new note if all voices busy
)

func (s VoiceStealStrategy) String() string {
	names := [...]string{"oldest", "quietest", "none"}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// VolumeMode selects how the global volume reaches sounding voices
type VolumeMode int

const (
	// VolumeSnapshot reads the volume once per trigger
	VolumeSnapshot VolumeMode = iota
	// VolumeLive routes voices through a bus gain that follows the volume control
	VolumeLive
)

func (m VolumeMode) String() string {
	if m == VolumeLive {
		return "live"
	}
	return "snapshot"
}

// ParseVolumeMode resolves a volume mode name
func ParseVolumeMode(name string) (VolumeMode, bool) {
	switch strings.ToLower(name) {
	case "snapshot":
		return VolumeSnapshot, true
	case "live":
		return VolumeLive, true
	}
	return 0, false
}
