package main

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/status"
	"github.com/lixenwraith/vi-studio/studio"
)

func newTestApp(t *testing.T) (*app, *audio.Context) {
	t.Helper()
	ctx, err := audio.NewContext(audio.Options{SampleRate: 8000})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	cfg := studio.DefaultConfig()
	cfg.SampleRate = 8000
	cfg.Seed = 7
	s, err := studio.New(ctx, cfg, status.NewRegistry())
	if err != nil {
		t.Fatalf("studio.New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen Init: %v", err)
	}
	screen.SetSize(100, 30)
	t.Cleanup(screen.Fini)

	return newApp(screen, s, nil), ctx
}

func press(a *app, k tcell.Key) bool {
	return a.handleKey(tcell.NewEventKey(k, 0, tcell.ModNone))
}

func typeRune(a *app, r rune) bool {
	return a.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
}

// row reads back one screen row
func row(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestPanelSwitching(t *testing.T) {
	a, _ := newTestApp(t)

	if a.panel != panelPiano {
		t.Fatalf("Expected piano panel at start, got %s", a.panel)
	}
	press(a, tcell.KeyTab)
	if a.panel != panelGuitar {
		t.Errorf("Expected guitar after tab, got %s", a.panel)
	}
	press(a, tcell.KeyBacktab)
	press(a, tcell.KeyBacktab)
	if a.panel != panelSynth {
		t.Errorf("Expected backtab to wrap to synth, got %s", a.panel)
	}
	press(a, tcell.KeyF3)
	if a.panel != panelDrums {
		t.Errorf("Expected F3 to select drums, got %s", a.panel)
	}
}

func TestQuitKeys(t *testing.T) {
	a, _ := newTestApp(t)
	if press(a, tcell.KeyEscape) {
		t.Error("Expected escape to quit")
	}
	if press(a, tcell.KeyCtrlC) {
		t.Error("Expected ctrl-c to quit")
	}
	if !typeRune(a, 'a') {
		t.Error("Expected a note key to keep running")
	}
}

func TestPianoKeyReleasesAfterHold(t *testing.T) {
	a, ctx := newTestApp(t)
	p := a.studio.Piano

	typeRune(a, 'a')
	note, _ := keyNote('a', a.octave)
	if !p.Engine().IsSounding(note) {
		t.Fatalf("Expected %s sounding after key press", note)
	}

	// A repeat inside the hold window extends it
	ctx.Advance(constant.KeyHoldTime / 2)
	typeRune(a, 'a')
	ctx.Advance(constant.KeyHoldTime * 3 / 4)
	if !p.Engine().IsSounding(note) {
		t.Errorf("Expected key repeat to keep %s sounding", note)
	}

	ctx.Advance(constant.KeyHoldTime / 2)
	if p.Engine().IsSounding(note) {
		t.Errorf("Expected %s released after the hold time", note)
	}
}

func TestPianoPedalAndOctave(t *testing.T) {
	a, _ := newTestApp(t)

	typeRune(a, ' ')
	if !a.studio.Piano.Sustain() {
		t.Error("Expected space to press the pedal")
	}
	typeRune(a, ' ')
	if a.studio.Piano.Sustain() {
		t.Error("Expected second space to lift the pedal")
	}

	start := a.octave
	typeRune(a, 'x')
	if a.octave != start+1 {
		t.Errorf("Expected octave %d, got %d", start+1, a.octave)
	}
	for range 20 {
		typeRune(a, 'z')
	}
	if a.octave != constant.MinSynthOctave {
		t.Errorf("Expected octave clamped to %d, got %d", constant.MinSynthOctave, a.octave)
	}
}

func TestDrumsPlayToggle(t *testing.T) {
	a, _ := newTestApp(t)
	press(a, tcell.KeyF3)

	typeRune(a, 'm')
	if !a.studio.Drums.IsPlaying() {
		t.Fatal("Expected m to start the pattern")
	}
	typeRune(a, 'm')
	if a.studio.Drums.IsPlaying() {
		t.Error("Expected second m to stop the pattern")
	}

	before := a.studio.Drums.Pattern()
	typeRune(a, 'n')
	if a.studio.Drums.Pattern() == before {
		t.Errorf("Expected n to move off pattern %s", before)
	}
}

func TestSynthStepEditing(t *testing.T) {
	a, _ := newTestApp(t)
	press(a, tcell.KeyF5)

	press(a, tcell.KeyRight)
	press(a, tcell.KeyRight)
	press(a, tcell.KeyEnter)
	if steps := a.studio.Synth.Steps(); !steps[2] {
		t.Errorf("Expected step 2 on, got %v", steps)
	}

	press(a, tcell.KeyLeft)
	press(a, tcell.KeyLeft)
	press(a, tcell.KeyLeft)
	if a.cursor != constant.SynthSteps-1 {
		t.Errorf("Expected cursor to wrap to %d, got %d", constant.SynthSteps-1, a.cursor)
	}

	typeRune(a, 'c')
	for i, on := range a.studio.Synth.Steps() {
		if on {
			t.Errorf("Expected step %d cleared", i)
		}
	}
}

func TestSynthPresetCycle(t *testing.T) {
	a, _ := newTestApp(t)
	press(a, tcell.KeyF5)

	start := a.studio.Synth.Preset().Name
	typeRune(a, 'n')
	if a.studio.Synth.Preset().Name == start {
		t.Errorf("Expected n to change preset from %s", start)
	}
	typeRune(a, 'b')
	if got := a.studio.Synth.Preset().Name; got != start {
		t.Errorf("Expected b to return to %s, got %s", start, got)
	}
}

func TestTempoKeys(t *testing.T) {
	a, _ := newTestApp(t)
	bpm := a.studio.BPM()

	press(a, tcell.KeyUp)
	if got := a.studio.BPM(); got != bpm+constant.BPMStep {
		t.Errorf("Expected BPM %d, got %d", bpm+constant.BPMStep, got)
	}
	press(a, tcell.KeyDown)
	press(a, tcell.KeyDown)
	if got := a.studio.BPM(); got != bpm-constant.BPMStep {
		t.Errorf("Expected BPM %d, got %d", bpm-constant.BPMStep, got)
	}
}

func TestVolumeKeys(t *testing.T) {
	a, _ := newTestApp(t)
	v := a.studio.Volume()

	typeRune(a, '-')
	if got := a.studio.Volume(); got > v-constant.VolumeStep+1e-9 || got < v-constant.VolumeStep-1e-9 {
		t.Errorf("Expected volume %.2f, got %.2f", v-constant.VolumeStep, got)
	}
	if !strings.HasPrefix(a.status, "Volume") {
		t.Errorf("Expected volume status, got %q", a.status)
	}
}

func TestRecordOnlyKeyboards(t *testing.T) {
	a, _ := newTestApp(t)

	press(a, tcell.KeyF2)
	press(a, tcell.KeyCtrlR)
	if a.status != "Only piano and synth record" {
		t.Errorf("Expected refusal on guitar panel, got %q", a.status)
	}

	press(a, tcell.KeyF1)
	press(a, tcell.KeyCtrlR)
	if !a.studio.Piano.Recorder().IsRecording() {
		t.Fatal("Expected ctrl-r to start recording the piano")
	}
	typeRune(a, 'a')
	press(a, tcell.KeyCtrlR)
	if a.studio.Piano.Recorder().IsRecording() {
		t.Error("Expected second ctrl-r to stop recording")
	}
	if len(a.studio.Piano.Recorder().Events()) == 0 {
		t.Error("Expected the take to hold the key press")
	}
}

func TestStopEverything(t *testing.T) {
	a, ctx := newTestApp(t)
	s := a.studio

	s.Drums.Play()
	s.Synth.StartSequence()
	typeRune(a, 'a')
	press(a, tcell.KeyBackspace2)

	if s.Drums.IsPlaying() || s.Synth.IsSequencing() {
		t.Error("Expected sequencers stopped")
	}
	ctx.Advance(3 * time.Second)
	if n := s.ActiveVoices(); n != 0 {
		t.Errorf("Expected no voices after stop, got %d", n)
	}
}

func TestDraw(t *testing.T) {
	a, _ := newTestApp(t)

	a.draw()
	if tabs := row(a.screen, 0); !strings.Contains(tabs, "F1 Piano") || !strings.Contains(tabs, "F5 Synth") {
		t.Errorf("Expected tab row, got %q", tabs)
	}
	if st := row(a.screen, 2); !strings.Contains(st, "BPM 120") {
		t.Errorf("Expected tempo in status row, got %q", st)
	}
	if title := row(a.screen, 4); !strings.HasPrefix(title, "Piano") {
		t.Errorf("Expected panel title, got %q", title)
	}

	press(a, tcell.KeyF4)
	a.draw()
	if pads := row(a.screen, 6); !strings.HasPrefix(pads, "a ") {
		t.Errorf("Expected pad grid, got %q", pads)
	}
}

func TestTextClipsToScreen(t *testing.T) {
	a, _ := newTestApp(t)
	w, _ := a.screen.Size()

	end := a.text(w-3, 0, tcell.StyleDefault, "overflowing")
	if end > w {
		t.Errorf("Expected text clipped to width %d, ended at %d", w, end)
	}
	if got := a.text(w, 0, tcell.StyleDefault, "x"); got != w {
		t.Errorf("Expected no drawing past the edge, got %d", got)
	}
}
