package pitch

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Sentinel errors
var (
	ErrInvalidPitch = errors.New("invalid pitch: frequency must be finite and positive")
	ErrInvalidNote  = errors.New("invalid note name")
)

// Reference tuning, A4 = 440Hz equal temperament
const (
	ReferenceFreq   = 440.0
	ReferenceOctave = 4
	ReferenceClass  = 9 // A

	MinOctave = 0
	MaxOctave = 9
)

// MIDIFrequencies contains precomputed frequencies for MIDI notes 0-127
var MIDIFrequencies [128]float64

func init() {
	for i := range MIDIFrequencies {
		MIDIFrequencies[i] = ReferenceFreq * math.Exp2((float64(i)-69.0)/12.0)
	}
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Note is a pitch class with an octave in scientific pitch notation
type Note struct {
	Class  int // 0 = C ... 11 = B
	Octave int
}

// Parse reads a note name: letter, optional accidental (# or b), octave
// Accidentals that cross an octave boundary (B#3, Cb4) wrap the octave
func Parse(name string) (Note, error) {
	if len(name) < 2 {
		return Note{}, errors.Wrapf(ErrInvalidNote, "%q", name)
	}

	class, ok := letterClass[name[0]]
	if !ok {
		return Note{}, errors.Wrapf(ErrInvalidNote, "%q", name)
	}

	rest := name[1:]
	switch rest[0] {
	case '#':
		class++
		rest = rest[1:]
	case 'b':
		class--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil || rest == "" || rest[0] == '+' || rest[0] == '-' {
		return Note{}, errors.Wrapf(ErrInvalidNote, "%q", name)
	}

	switch {
	case class < 0:
		class += 12
		octave--
	case class > 11:
		class -= 12
		octave++
	}

	if octave < MinOctave || octave > MaxOctave {
		return Note{}, errors.Wrapf(ErrInvalidNote, "octave out of range in %q", name)
	}
	return Note{Class: class, Octave: octave}, nil
}

// MustParse is Parse for constant tables, panics on error
func MustParse(name string) Note {
	n, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return n
}

// Frequency converts a note to Hz
func (n Note) Frequency() float64 {
	semis := 12*(n.Octave-ReferenceOctave) + (n.Class - ReferenceClass)
	return ReferenceFreq * math.Exp2(float64(semis)/12.0)
}

// MIDI returns the MIDI note number (C4 = 60)
func (n Note) MIDI() int {
	return 12*(n.Octave+1) + n.Class
}

// Transpose shifts the note by semitones
func (n Note) Transpose(semitones int) Note {
	return FromMIDI(n.MIDI() + semitones)
}

func (n Note) String() string {
	if n.Class < 0 || n.Class > 11 {
		return "?"
	}
	return sharpNames[n.Class] + strconv.Itoa(n.Octave)
}

// FromMIDI converts a MIDI note number to a note
func FromMIDI(m int) Note {
	octave := m/12 - 1
	class := m % 12
	if class < 0 {
		class += 12
		octave--
	}
	return Note{Class: class, Octave: octave}
}

// FromFrequency returns the nearest equal-tempered note
func FromFrequency(freq float64) (Note, error) {
	if err := Validate(freq); err != nil {
		return Note{}, err
	}
	semis := int(math.Round(12 * math.Log2(freq/ReferenceFreq)))
	return FromMIDI(69 + semis), nil
}

// Frequency parses a note name and converts it to Hz
func Frequency(name string) (float64, error) {
	n, err := Parse(name)
	if err != nil {
		return 0, err
	}
	return n.Frequency(), nil
}

// MIDIFreq returns frequency in Hz for MIDI note number
func MIDIFreq(midi int) float64 {
	if midi < 0 || midi >= len(MIDIFrequencies) {
		return 0
	}
	return MIDIFrequencies[midi]
}

// Validate rejects non-finite, zero and negative frequencies
func Validate(freq float64) error {
	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 {
		return errors.Wrapf(ErrInvalidPitch, "%v", freq)
	}
	return nil
}
