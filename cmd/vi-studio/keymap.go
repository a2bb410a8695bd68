package main

import (
	"fmt"

	"github.com/lixenwraith/vi-studio/core"
)

// panel is the instrument the letter keys currently play
type panel int

const (
	panelPiano panel = iota
	panelGuitar
	panelDrums
	panelPercussion
	panelSynth
	panelCount
)

var panelNames = [...]string{"Piano", "Guitar", "Drums", "Percussion", "Synth"}

func (p panel) String() string {
	if p >= 0 && p < panelCount {
		return panelNames[p]
	}
	return "?"
}

func (p panel) next() panel { return (p + 1) % panelCount }
func (p panel) prev() panel { return (p + panelCount - 1) % panelCount }

// keyboardKeys lays a chromatic octave and a fourth over the home and top rows, semitones above C
var keyboardKeys = map[rune]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5, 't': 6, 'g': 7,
	'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12, 'o': 13, 'l': 14, 'p': 15, ';': 16,
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// keyNote returns the note a keyboard key plays with C of octave as the lowest key
func keyNote(r rune, octave int) (string, bool) {
	semi, ok := keyboardKeys[r]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s%d", noteNames[semi%12], octave+semi/12), true
}

// drumKeys are the kit pads of the drums panel
var drumKeys = map[rune]core.Instrument{
	'a': core.InstrKick,
	's': core.InstrSnare,
	'd': core.InstrHihatClosed,
	'f': core.InstrHihatOpen,
	'g': core.InstrCrash,
	'h': core.InstrRide,
	'j': core.InstrTom1,
	'k': core.InstrTom2,
	'l': core.InstrTom3,
}

// chordKeys pick a root on the guitar panel; the shifted key plays the minor chord
var chordKeys = map[rune]string{
	'a': "C", 's': "D", 'd': "E", 'f': "F", 'g': "G", 'h': "A", 'j': "B",
}

// stringKeys pluck the open strings, low string first
var stringKeys = map[rune]int{'q': 0, 'w': 1, 'e': 2, 'r': 3, 't': 4, 'y': 5}

// padOrder assigns percussion sounds to keys in this order
const padOrder = "asdfghjklqwertyuiopzxcvbnm"

// padKeys maps keys onto sound names, in order, until either runs out
func padKeys(sounds []string) map[rune]string {
	m := make(map[rune]string, len(sounds))
	for i, r := range padOrder {
		if i >= len(sounds) {
			break
		}
		m[r] = sounds[i]
	}
	return m
}

// lower folds an ASCII capital letter, reporting whether it was shifted
func lower(r rune) (rune, bool) {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A'), true
	}
	return r, false
}
