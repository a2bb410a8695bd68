package pitch

import (
	"errors"
	"math"
	"testing"
)

func TestParseKnownFrequencies(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"A4", 440.0},
		{"A3", 220.0},
		{"A5", 880.0},
		{"C4", 261.6255653005986},
		{"C#4", 277.1826309768721},
		{"Db4", 277.1826309768721},
		{"E4", 329.6275569128699},
		{"B8", 7902.132820097988},
		{"C1", 32.70319566257483},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Frequency(tt.name)
			if err != nil {
				t.Fatalf("Expected no error for %s, got %v", tt.name, err)
			}
			if math.Abs(got-tt.want)/tt.want > 1e-9 {
				t.Errorf("Expected %s = %f Hz, got %f", tt.name, tt.want, got)
			}
		})
	}
}

func TestParseAccidentalWrap(t *testing.T) {
	n, err := Parse("Cb4")
	if err != nil {
		t.Fatalf("Expected Cb4 to parse, got %v", err)
	}
	if n.String() != "B3" {
		t.Errorf("Expected Cb4 to equal B3, got %s", n)
	}

	n, err = Parse("B#3")
	if err != nil {
		t.Fatalf("Expected B#3 to parse, got %v", err)
	}
	if n.String() != "C4" {
		t.Errorf("Expected B#3 to equal C4, got %s", n)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, name := range []string{"", "H4", "C", "C#", "Cx4", "c4", "C-1", "C+4", "C10", "4C"} {
		if _, err := Parse(name); !errors.Is(err, ErrInvalidNote) {
			t.Errorf("Expected ErrInvalidNote for %q, got %v", name, err)
		}
	}
}

// TestRoundTrip covers all pitch classes and accidental spellings across octaves 1-8
func TestRoundTrip(t *testing.T) {
	spellings := []string{
		"C", "C#", "Db", "D", "D#", "Eb", "E", "F", "F#", "Gb",
		"G", "G#", "Ab", "A", "A#", "Bb", "B",
	}

	for octave := 1; octave <= 8; octave++ {
		for _, s := range spellings {
			name := s + string(rune('0'+octave))
			n, err := Parse(name)
			if err != nil {
				t.Fatalf("Parse(%s) failed: %v", name, err)
			}
			f := n.Frequency()

			back, err := FromFrequency(f)
			if err != nil {
				t.Fatalf("FromFrequency(%f) failed: %v", f, err)
			}
			if back != n {
				t.Errorf("Expected %s to round-trip, got %s", n, back)
			}
			if rel := math.Abs(back.Frequency()-f) / f; rel > 1e-6 {
				t.Errorf("Expected %s frequency round-trip within 1e-6, got relative error %g", name, rel)
			}
		}
	}
}

func TestMonotonic(t *testing.T) {
	prev := 0.0
	for m := 12; m < 120; m++ {
		f := FromMIDI(m).Frequency()
		if f <= prev {
			t.Fatalf("Expected frequency to increase at MIDI %d, got %f after %f", m, f, prev)
		}
		if math.Abs(f-MIDIFreq(m)) > 1e-9 {
			t.Errorf("Expected table frequency %f for MIDI %d, got %f", MIDIFreq(m), m, f)
		}
		prev = f
	}
}

func TestMIDI(t *testing.T) {
	if got := MustParse("C4").MIDI(); got != 60 {
		t.Errorf("Expected C4 = MIDI 60, got %d", got)
	}
	if got := MustParse("A4").MIDI(); got != 69 {
		t.Errorf("Expected A4 = MIDI 69, got %d", got)
	}
	if got := MustParse("C4").Transpose(-1).String(); got != "B3" {
		t.Errorf("Expected C4 - 1 = B3, got %s", got)
	}
	if MIDIFreq(-1) != 0 || MIDIFreq(128) != 0 {
		t.Error("Expected out-of-range MIDI to return 0")
	}
}

func TestValidate(t *testing.T) {
	bad := []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, f := range bad {
		if err := Validate(f); !errors.Is(err, ErrInvalidPitch) {
			t.Errorf("Expected ErrInvalidPitch for %v, got %v", f, err)
		}
		if _, err := FromFrequency(f); !errors.Is(err, ErrInvalidPitch) {
			t.Errorf("Expected FromFrequency(%v) to fail with ErrInvalidPitch, got %v", f, err)
		}
	}
	if err := Validate(0.001); err != nil {
		t.Errorf("Expected small positive frequency to be valid, got %v", err)
	}
}
