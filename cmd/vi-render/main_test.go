package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/sequencer"
)

func TestPatternLength(t *testing.T) {
	p := sequencer.Grid("test", core.InstrKick, "", make([]bool, 16))

	tests := []struct {
		bpm, bars int
		want      time.Duration
	}{
		{120, 1, 2 * time.Second},
		{120, 2, 4 * time.Second},
		{60, 1, 4 * time.Second},
		{120, 0, 0},
		{0, 1, 0},
	}
	for _, tt := range tests {
		if got := patternLength(p, tt.bpm, tt.bars); got != tt.want {
			t.Errorf("patternLength(bpm %d, bars %d) = %v, expected %v", tt.bpm, tt.bars, got, tt.want)
		}
	}
}

func TestRenderPattern(t *testing.T) {
	out := filepath.Join(t.TempDir(), "beat.wav")
	d, err := render(options{pattern: "funk", bars: 1, bpm: 120, rate: 8000, seed: 3, out: out})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	p, _ := sequencer.Lookup("funk")
	if want := patternLength(p, 120, 1); d < want {
		t.Errorf("Expected at least %v rendered, got %v", want, d)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatalf("Expected a RIFF header, got %q", data[:min(4, len(data))])
	}
	// 16-bit stereo frames plus the header
	if frames := (len(data) - 44) / 4; frames < int(d.Seconds()*8000)-1 {
		t.Errorf("Expected about %d frames, got %d", int(d.Seconds()*8000), frames)
	}
}

func TestRenderUnknownPattern(t *testing.T) {
	out := filepath.Join(t.TempDir(), "none.wav")
	if _, err := render(options{pattern: "no-such", bars: 1, bpm: 120, rate: 8000, out: out}); err == nil {
		t.Error("Expected error for unknown pattern")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("Expected no output file after a failed render")
	}
}

func TestRenderTake(t *testing.T) {
	dir := t.TempDir()
	take := filepath.Join(dir, "take.json")
	rec := `{"version":"1.0","instrument":"piano","notes":[{"note":"C4","type":"start","timeOffsetMs":0},{"note":"C4","type":"end","timeOffsetMs":500}],"duration":500}`
	if err := os.WriteFile(take, []byte(rec), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := render(options{take: take, rate: 8000, bpm: 120, seed: 1, out: filepath.Join(dir, "take.wav")})
	if err != nil {
		t.Fatalf("render take: %v", err)
	}
	if d < 500*time.Millisecond {
		t.Errorf("Expected the take length in the render, got %v", d)
	}

	bad := filepath.Join(dir, "drums.json")
	os.WriteFile(bad, []byte(`{"version":"1.0","instrument":"drums","notes":[],"duration":0}`), 0644)
	if _, err := render(options{take: bad, rate: 8000, bpm: 120, out: filepath.Join(dir, "bad.wav")}); err == nil {
		t.Error("Expected error for a take from a non-keyboard instrument")
	}
}
