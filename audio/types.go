package audio

import (
	"errors"
)

// State is the lifecycle of a Context
type State int

const (
	StateRunning State = iota
	StateSuspended
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Processor is a block DSP stage hosted by a ProcessorNode
// in holds the summed input for the block; out has the same length and must be fully written
type Processor interface {
	Process(in, out []float64)
}

// Sentinel errors
var (
	ErrClosed            = errors.New("audio context closed")
	ErrNotRunning        = errors.New("audio context not running")
	ErrNodeLimit         = errors.New("audio node limit reached")
	ErrDisposed          = errors.New("audio node disposed")
	ErrForeignNode       = errors.New("audio node belongs to another context")
	ErrInvalidValue      = errors.New("automation value or time must be finite")
	ErrNegativeTime      = errors.New("automation time must not be negative")
	ErrExponentialTarget = errors.New("exponential ramp target must be positive")
	ErrInvalidSampleRate = errors.New("sample rate out of range")
	ErrAlreadyStarted    = errors.New("source already started")
)
