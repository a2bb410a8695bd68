package main

import (
	"testing"

	"github.com/lixenwraith/vi-studio/pitch"
	"github.com/lixenwraith/vi-studio/recipe"
)

func TestKeyNote(t *testing.T) {
	tests := []struct {
		key    rune
		octave int
		want   string
		ok     bool
	}{
		{'a', 4, "C4", true},
		{'w', 4, "C#4", true},
		{'j', 3, "B3", true},
		{'k', 4, "C5", true},
		{';', 2, "E3", true},
		{'z', 4, "", false},
		{'1', 4, "", false},
	}

	for _, tt := range tests {
		got, ok := keyNote(tt.key, tt.octave)
		if got != tt.want || ok != tt.ok {
			t.Errorf("keyNote(%q, %d) = %q, %v; expected %q, %v", tt.key, tt.octave, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeyboardKeysParse(t *testing.T) {
	for r := range keyboardKeys {
		note, _ := keyNote(r, 4)
		if _, err := pitch.Frequency(note); err != nil {
			t.Errorf("Key %q gives unplayable note %s: %v", r, note, err)
		}
	}
}

func TestPadKeys(t *testing.T) {
	sounds := recipe.SoundNames()
	pads := padKeys(sounds)

	want := min(len(sounds), len(padOrder))
	if len(pads) != want {
		t.Fatalf("Expected %d pads, got %d", want, len(pads))
	}
	if pads['a'] != sounds[0] {
		t.Errorf("Expected first pad %s, got %s", sounds[0], pads['a'])
	}

	short := padKeys([]string{"x", "y"})
	if len(short) != 2 || short['s'] != "y" {
		t.Errorf("Expected two pads, got %v", short)
	}
}

func TestPadKeysAvoidShiftCollisions(t *testing.T) {
	// Shifted pads roll, so no pad may sit on a capital
	for _, r := range padOrder {
		if r >= 'A' && r <= 'Z' {
			t.Errorf("Pad key %q is a capital", r)
		}
	}
}

func TestLower(t *testing.T) {
	tests := []struct {
		in      rune
		want    rune
		shifted bool
	}{
		{'A', 'a', true},
		{'Z', 'z', true},
		{'a', 'a', false},
		{';', ';', false},
	}
	for _, tt := range tests {
		got, shifted := lower(tt.in)
		if got != tt.want || shifted != tt.shifted {
			t.Errorf("lower(%q) = %q, %v; expected %q, %v", tt.in, got, shifted, tt.want, tt.shifted)
		}
	}
}

func TestPanelCycle(t *testing.T) {
	p := panelPiano
	for range panelCount {
		p = p.next()
	}
	if p != panelPiano {
		t.Errorf("Expected a full cycle back to piano, got %s", p)
	}
	if panelPiano.prev() != panelSynth {
		t.Errorf("Expected piano prev to be synth, got %s", panelPiano.prev())
	}
	if panel(99).String() != "?" {
		t.Errorf("Expected unknown panel name ?, got %s", panel(99))
	}
}
