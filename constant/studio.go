package constant

import "time"

// Tempo
const (
	DefaultBPM = 120
	MinBPM     = 40
	MaxBPM     = 240

	// SynthSteps is the length of the synth step grid
	SynthSteps = 16

	// SynthStepsPerBeat subdivides a beat into sixteenth notes
	SynthStepsPerBeat = 4

	// BeatStepsPerBeat quantizes drum patterns to eighths and triplets alike
	BeatStepsPerBeat = 24

	// BeatPatternBeats is the length of every drum pattern
	BeatPatternBeats = 2

	// SequencerNoteLength is how long a step-grid note is held
	SequencerNoteLength = 100 * time.Millisecond

	// SequencerVelocity is the fixed velocity of step-grid notes
	SequencerVelocity = 0.8
)

// Guitar
const (
	// GuitarStrings is the number of strings on the fretboard
	GuitarStrings = 6

	// StrumStagger is the onset offset between consecutive strings of a strum
	StrumStagger = 30 * time.Millisecond

	// GuitarMaxFret is the highest playable fret
	GuitarMaxFret = 12
)

// Logging
const (
	LogDir      = "logs"
	LogFileName = "vi-studio.log"
	MaxLogSize  = 10 * 1024 * 1024
)

// Effects
const (
	// MaxDelayTime bounds the delay line
	MaxDelayTime = time.Second

	// DelayWetLevel is the fixed send level of an enabled delay
	DelayWetLevel = 0.3

	// ConvolverBlock is the partition length of the reverb convolver; the FFT is twice this
	ConvolverBlock = 512

	// DistortionCurveSamples is the resolution of the waveshaper transfer curve
	DistortionCurveSamples = 44100

	// ReverbDecayExponent tapers the generated reverb impulse
	ReverbDecayExponent = 2.0
)

// Instrument Defaults
const (
	// GuitarVelocity is the pick strength of a single fret
	GuitarVelocity = 0.3

	// KeyVelocity is the strength of a piano or synth key press
	KeyVelocity = 1.0

	// PadVelocity is the strength of a drum or percussion pad hit
	PadVelocity = 1.0

	// DefaultSynthOctave is the octave of the step grid note
	DefaultSynthOctave = 4
	MinSynthOctave     = 1
	MaxSynthOctave     = 7

	// LFODefaultRate is the synth LFO frequency (Hz)
	LFODefaultRate = 2.0
	LFOMaxRate     = 20.0

	// LFODefaultFilterMod is the LFO filter depth (0..100)
	LFODefaultFilterMod = 30

	// LFOCutoffPerUnit converts filter depth units into cutoff swing (Hz)
	LFOCutoffPerUnit = 10.0
)

// Interface
const (
	// UIFrameInterval is the redraw period of the terminal front end
	UIFrameInterval = 50 * time.Millisecond

	// KeyHoldTime is how long a typed key holds its note; terminals report no key release
	KeyHoldTime = 400 * time.Millisecond

	// VolumeStep and BPMStep are the increments of the volume and tempo keys
	VolumeStep = 0.05
	BPMStep    = 5

	// MeterWidth is the cell width of the level meter
	MeterWidth = 20

	// RenderTail is the silence rendered after the last event of an offline render
	RenderTail = 2 * time.Second
)
