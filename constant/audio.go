package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate = 44100
	AudioChannels   = 2
	AudioBitDepth   = 16

	// MinSampleRate and MaxSampleRate bound configurable rates
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// Render Timing
const (
	// RenderQuantum is the maximum frames rendered per graph pull
	// Scheduler deadlines split quanta so events land on their exact frame
	RenderQuantum = 128

	// SpeakerBufferDuration determines output latency of the live sink
	SpeakerBufferDuration = 50 * time.Millisecond

	// DriverTickInterval is the wall-clock pump interval when no device is available
	DriverTickInterval = 10 * time.Millisecond
)

// Envelope Settings
const (
	// EnvelopeEpsilon is the floor for exponential ramps, which cannot reach zero
	EnvelopeEpsilon = 0.0001

	// StopGuard is added after a release ramp before generators are hard-stopped
	StopGuard = 100 * time.Millisecond

	// StealFade is the release time applied to a voice taken by the voice cap
	StealFade = 5 * time.Millisecond

	// BusRampTime smooths live bus gain changes
	BusRampTime = 10 * time.Millisecond

	// MinCutoff and MaxCutoff bound filter cutoff envelopes (Hz)
	MinCutoff = 20.0
	MaxCutoff = 20000.0

	// CutoffReleaseRatio is the fraction of base cutoff a filter releases toward
	CutoffReleaseRatio = 0.1

	// CutoffEnvelopeRange scales filter envelope amount into a cutoff multiplier
	CutoffEnvelopeRange = 10.0
)

// Voice Limits
const (
	// DefaultMaxVoices caps concurrently sounding voices per instrument
	DefaultMaxVoices = 32

	// MinMaxVoices and MaxMaxVoices bound the configurable cap
	MinMaxVoices = 1
	MaxMaxVoices = 256

	// HeldVoiceLifetime bounds key-held voices (piano, synth) as a leak safety net
	HeldVoiceLifetime = 30 * time.Second
)

// Volume Defaults
const (
	DefaultMasterVolume = 0.7
	DefaultVolume       = 0.8
)

// Pipe Backend Settings
const (
	// AudioBytesPerFrame is one interleaved stereo s16le frame
	AudioBytesPerFrame = AudioChannels * AudioBitDepth / 8

	// PipeLatency is the buffering requested from command-line players
	PipeLatency = 50 * time.Millisecond

	// PipeCloseTimeout bounds the wait for a player to drain before it is killed
	PipeCloseTimeout = time.Second

	// SoftLimitKnee is the level above which pipe output is soft limited
	SoftLimitKnee = 0.8
)

// NoiseVariants is the number of distinct bursts cached per noise shape, handed out in turn
const NoiseVariants = 4
