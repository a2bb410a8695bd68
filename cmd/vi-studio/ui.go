package main

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/clock"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/recipe"
	"github.com/lixenwraith/vi-studio/recorder"
	"github.com/lixenwraith/vi-studio/status"
	"github.com/lixenwraith/vi-studio/studio"
)

// keyboard is an instrument played from the note keys
type keyboard interface {
	recorder.Target
	Name() string
	Recorder() *recorder.Recorder
	StartRecording()
	StopRecording() int
}

type heldKey struct {
	p    panel
	note string
}

// app is the terminal front end; every method runs on the UI goroutine
type app struct {
	screen tcell.Screen
	studio *studio.Studio
	out    *audio.OutputService // nil when rendering without a device

	panel  panel
	octave int
	cursor int  // synth step under edit
	up     bool // guitar strum direction
	pads   map[rune]string
	held   map[heldKey]clock.ID
	stop   func() // cancels take playback
	status string

	meter []tcell.Style
}

func newApp(screen tcell.Screen, s *studio.Studio, out *audio.OutputService) *app {
	return &app{
		screen: screen,
		studio: s,
		out:    out,
		octave: constant.DefaultSynthOctave,
		pads:   padKeys(recipe.SoundNames()),
		held:   make(map[heldKey]clock.ID),
		meter:  meterStyles(constant.MeterWidth),
	}
}

// meterStyles grades the level meter from green to red
func meterStyles(n int) []tcell.Style {
	low, _ := colorful.Hex("#2ecc71")
	high, _ := colorful.Hex("#e74c3c")
	out := make([]tcell.Style, n)
	for i := range out {
		c := low.BlendHcl(high, float64(i)/float64(max(n-1, 1))).Clamped()
		r, g, b := c.RGB255()
		out[i] = tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
	}
	return out
}

// run polls input and redraws until the user quits
func (a *app) run() {
	events := make(chan tcell.Event, 64)
	core.Go(func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	})

	ticker := time.NewTicker(constant.UIFrameInterval)
	defer ticker.Stop()

	a.draw()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !a.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				a.screen.Sync()
			}
		case <-ticker.C:
			a.refresh()
			a.draw()
		}
	}
}

// refresh updates the studio metrics and the output state shown in the status row
func (a *app) refresh() {
	a.studio.RefreshMetrics()
	if a.out != nil {
		a.studio.Metrics().Bools.Get(status.AudioSilent).Store(a.out.IsSilent())
	}
}

// handleKey applies one key press, returning false to quit
func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyTab:
		a.panel = a.panel.next()
	case tcell.KeyBacktab:
		a.panel = a.panel.prev()
	case tcell.KeyF1, tcell.KeyF2, tcell.KeyF3, tcell.KeyF4, tcell.KeyF5:
		a.panel = panel(ev.Key() - tcell.KeyF1)
	case tcell.KeyUp:
		a.setStatus("BPM %d", a.studio.SetBPM(a.studio.BPM()+constant.BPMStep))
	case tcell.KeyDown:
		a.setStatus("BPM %d", a.studio.SetBPM(a.studio.BPM()-constant.BPMStep))
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyDelete:
		a.stopEverything()
	case tcell.KeyCtrlR:
		a.toggleRecording()
	case tcell.KeyCtrlP:
		a.playTake()
	case tcell.KeyCtrlS:
		a.saveTake()
	case tcell.KeyLeft:
		a.cursor = (a.cursor + constant.SynthSteps - 1) % constant.SynthSteps
	case tcell.KeyRight:
		a.cursor = (a.cursor + 1) % constant.SynthSteps
	case tcell.KeyEnter:
		if a.panel == panelSynth {
			_, err := a.studio.Synth.ToggleStep(a.cursor)
			a.report(err)
		}
	case tcell.KeyRune:
		a.handleRune(ev.Rune())
	}
	return true
}

func (a *app) handleRune(r rune) {
	switch r {
	case '-':
		a.setStatus("Volume %.0f%%", 100*a.studio.SetVolume(a.studio.Volume()-constant.VolumeStep))
		return
	case '=':
		a.setStatus("Volume %.0f%%", 100*a.studio.SetVolume(a.studio.Volume()+constant.VolumeStep))
		return
	case '_', '+':
		if a.out != nil {
			step := constant.VolumeStep
			if r == '_' {
				step = -step
			}
			a.out.SetMasterVolume(a.out.MasterVolume() + step)
			a.setStatus("Master %.0f%%", 100*a.out.MasterVolume())
		}
		return
	}

	switch a.panel {
	case panelPiano:
		a.pianoKey(r)
	case panelGuitar:
		a.guitarKey(r)
	case panelDrums:
		a.drumKey(r)
	case panelPercussion:
		a.percussionKey(r)
	case panelSynth:
		a.synthKey(r)
	}
}

func (a *app) pianoKey(r rune) {
	switch r {
	case ' ':
		p := a.studio.Piano
		p.SetSustain(!p.Sustain())
	case 'z', 'x':
		a.shiftOctave(r)
	default:
		a.playKey(a.studio.Piano, r)
	}
}

func (a *app) synthKey(r rune) {
	sy := a.studio.Synth
	switch r {
	case 'z', 'x':
		a.shiftOctave(r)
		sy.SetOctave(a.octave)
	case 'm':
		if sy.IsSequencing() {
			sy.StopSequence()
		} else {
			sy.StartSequence()
		}
	case 'c':
		sy.ClearSteps()
	case 'n', 'b':
		names := recipe.PresetNames()
		i := indexOf(names, sy.Preset().Name)
		if r == 'n' {
			i = (i + 1) % len(names)
		} else {
			i = (i + len(names) - 1) % len(names)
		}
		a.report(sy.LoadPreset(names[i]))
		a.setStatus("Preset %s", names[i])
	case 'v':
		l := sy.LFO()
		l.Wave = (l.Wave + 1) % core.WaveNoise
		a.report(sy.SetLFO(l))
	case ',', '.':
		l := sy.LFO()
		if r == ',' {
			l.FilterMod = max(0, l.FilterMod-10)
		} else {
			l.FilterMod = min(100, l.FilterMod+10)
		}
		a.report(sy.SetLFO(l))
	default:
		a.playKey(sy, r)
	}
}

func (a *app) guitarKey(r rune) {
	g := a.studio.Guitar
	switch r {
	case 'u':
		a.up = !a.up
		return
	case 'm':
		if g.PatternPlaying() {
			g.StopPattern()
		} else {
			g.StartPattern()
		}
		return
	case 'n':
		names := tuningNames()
		a.report(g.SetTuning(names[(indexOf(names, g.Tuning())+1)%len(names)]))
		return
	}
	if s, ok := stringKeys[r]; ok {
		a.report(g.PlayFret(s, 0))
		return
	}
	low, minor := lower(r)
	if root, ok := chordKeys[low]; ok {
		if minor {
			root += "m"
		}
		a.report(g.PlayChord(root, a.up))
	}
}

func (a *app) drumKey(r rune) {
	d := a.studio.Drums
	switch r {
	case 'm':
		if d.IsPlaying() {
			d.Stop()
		} else {
			d.Play()
		}
	case 'n':
		names := d.Patterns()
		a.report(d.SetPattern(names[(indexOf(names, d.Pattern())+1)%len(names)]))
	case 'b':
		if d.MetronomeOn() {
			d.StopMetronome()
		} else {
			d.StartMetronome()
		}
	default:
		if instr, ok := drumKeys[r]; ok {
			a.report(d.Hit(instr, constant.PadVelocity))
		}
	}
}

func (a *app) percussionKey(r rune) {
	low, roll := lower(r)
	name, ok := a.pads[low]
	if !ok {
		return
	}
	if roll {
		a.report(a.studio.Percussion.Roll(name, 4, 60*time.Millisecond))
		return
	}
	a.report(a.studio.Percussion.Pad(name))
}

// playKey sounds the note under r and releases it KeyHoldTime after the last repeat
func (a *app) playKey(kb keyboard, r rune) {
	note, ok := keyNote(r, a.octave)
	if !ok {
		return
	}
	if err := kb.Press(note); err != nil {
		a.report(err)
		return
	}

	ctx := a.studio.Context()
	k := heldKey{a.panel, note}
	if id, ok := a.held[k]; ok {
		ctx.Cancel(id)
	}
	a.held[k] = ctx.At(ctx.CurrentTime()+constant.KeyHoldTime.Seconds(), func() {
		if err := kb.Release(note); err != nil {
			log.Printf("ui: release %s: %v", note, err)
		}
	})
}

func (a *app) shiftOctave(r rune) {
	if r == 'z' {
		a.octave = max(constant.MinSynthOctave, a.octave-1)
	} else {
		a.octave = min(constant.MaxSynthOctave, a.octave+1)
	}
	a.setStatus("Octave %d", a.octave)
}

// keyboardFor returns the recording instrument of the current panel
func (a *app) keyboardFor() (keyboard, bool) {
	switch a.panel {
	case panelPiano:
		return a.studio.Piano, true
	case panelSynth:
		return a.studio.Synth, true
	}
	return nil, false
}

func (a *app) toggleRecording() {
	kb, ok := a.keyboardFor()
	if !ok {
		a.setStatus("Only piano and synth record")
		return
	}
	if kb.Recorder().IsRecording() {
		a.setStatus("Recorded %d events", kb.StopRecording())
		return
	}
	kb.StartRecording()
	a.setStatus("Recording %s", kb.Name())
}

func (a *app) playTake() {
	kb, ok := a.keyboardFor()
	if !ok {
		return
	}
	if a.stop != nil {
		a.stop()
		a.stop = nil
	}
	events := kb.Recorder().Events()
	if len(events) == 0 {
		a.setStatus("Nothing recorded")
		return
	}
	stop, err := kb.Recorder().Play(events, kb)
	if err != nil {
		a.report(err)
		return
	}
	a.stop = stop
	a.setStatus("Playing %d events", len(events))
}

func (a *app) saveTake() {
	kb, ok := a.keyboardFor()
	if !ok {
		return
	}
	name := fmt.Sprintf("%s-%s.json", kb.Name(), time.Now().Format("20060102-150405"))
	f, err := os.Create(name)
	if err != nil {
		a.report(err)
		return
	}
	defer f.Close()
	if err := kb.Recorder().WriteJSON(f); err != nil {
		os.Remove(name)
		a.report(err)
		return
	}
	a.setStatus("Saved %s", name)
}

func (a *app) stopEverything() {
	s := a.studio
	if a.stop != nil {
		a.stop()
		a.stop = nil
	}
	s.Drums.Stop()
	s.Drums.StopMetronome()
	s.Guitar.StopPattern()
	s.Synth.StopSequence()
	s.Piano.SetSustain(false)
	s.StopAll()
	a.setStatus("Stopped")
}

func (a *app) setStatus(format string, args ...any) {
	a.status = fmt.Sprintf(format, args...)
}

// report shows err on the status line; nil keeps the current message
func (a *app) report(err error) {
	if err == nil {
		return
	}
	a.status = err.Error()
	log.Printf("ui: %v", err)
}

func (a *app) draw() {
	a.screen.Clear()
	a.drawTabs(0)
	a.drawStatus(2)
	y := a.drawPanel(4)
	a.drawHelp(y + 1)

	_, h := a.screen.Size()
	a.text(0, h-1, tcell.StyleDefault.Dim(true), a.status)
	a.screen.Show()
}

func (a *app) drawTabs(y int) {
	x := 0
	for p := range panelCount {
		style := tcell.StyleDefault
		if p == a.panel {
			style = style.Reverse(true).Bold(true)
		}
		x = a.text(x, y, style, fmt.Sprintf(" F%d %s ", p+1, p))
		x++
	}
}

func (a *app) drawStatus(y int) {
	s := a.studio
	x := a.text(0, y, tcell.StyleDefault, "Vol ")
	filled := int(s.Volume()*float64(len(a.meter)) + 0.5)
	for i, st := range a.meter {
		r := '·'
		if i < filled {
			r = '█'
		}
		a.screen.SetContent(x+i, y, r, nil, st)
	}
	x += len(a.meter) + 1

	line := fmt.Sprintf("%3.0f%%  BPM %d  Voices %d  Nodes %d", 100*s.Volume(), s.BPM(), s.ActiveVoices(), s.Context().LiveNodes())
	if s.VolumeMode() == core.VolumeLive {
		line += "  live"
	}
	if a.out != nil && a.out.IsSilent() {
		line += "  SILENT"
	}
	x = a.text(x, y, tcell.StyleDefault, line)
	for _, kb := range []keyboard{s.Piano, s.Synth} {
		if kb.Recorder().IsRecording() {
			a.text(x+2, y, tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true), "● REC "+kb.Name())
		}
	}
}

// drawPanel draws the current instrument and returns the next free row
func (a *app) drawPanel(y int) int {
	s := a.studio
	bold := tcell.StyleDefault.Bold(true)
	a.text(0, y, bold, a.panel.String())
	y += 2

	switch a.panel {
	case panelPiano:
		a.text(0, y, tcell.StyleDefault, fmt.Sprintf("Octave %d  Sustain %s", a.octave, onOff(s.Piano.Sustain())))
		a.text(0, y+1, tcell.StyleDefault, "Held "+strings.Join(s.Piano.Held(), " "))
		y += 3
		y = a.drawKeyboard(y)
	case panelGuitar:
		g := s.Guitar
		dir := "down"
		if a.up {
			dir = "up"
		}
		a.text(0, y, tcell.StyleDefault, fmt.Sprintf("Tuning %s  Chord %s  Strum %s  Pattern %s", g.Tuning(), g.Chord().Name, dir, onOff(g.PatternPlaying())))
		y += 2
	case panelDrums:
		d := s.Drums
		a.text(0, y, tcell.StyleDefault, fmt.Sprintf("Pattern %s  Step %d  Playing %s  Metronome %s", d.Pattern(), d.Step(), onOff(d.IsPlaying()), onOff(d.MetronomeOn())))
		y += 2
		for i, r := range "asdfghjkl" {
			a.text((i%5)*16, y+i/5, tcell.StyleDefault, fmt.Sprintf("%c %s", r, drumKeys[r]))
		}
		y += 3
	case panelPercussion:
		for i, r := range padOrder {
			name, ok := a.pads[r]
			if !ok {
				break
			}
			a.text((i%4)*20, y+i/4, tcell.StyleDefault, runewidth.FillRight(fmt.Sprintf("%c %s", r, name), 19))
		}
		y += (len(a.pads)+3)/4 + 1
	case panelSynth:
		sy := s.Synth
		l := sy.LFO()
		a.text(0, y, tcell.StyleDefault, fmt.Sprintf("Preset %s  Octave %d  LFO %s %.1fHz depth %.0f  Sequence %s", sy.Preset().Name, sy.Octave(), l.Wave, l.Rate, l.FilterMod, onOff(sy.IsSequencing())))
		y += 2
		a.drawGrid(y, sy.Steps(), sy.Step())
		y += 2
		y = a.drawKeyboard(y)
	}
	return y
}

// drawKeyboard shows the note under each key at the current octave
func (a *app) drawKeyboard(y int) int {
	x := 0
	for _, r := range "awsedftgyhujkolp;" {
		note, _ := keyNote(r, a.octave)
		style := tcell.StyleDefault
		if strings.Contains(note, "#") {
			style = style.Reverse(true)
		}
		x = a.text(x, y, style, runewidth.FillRight(fmt.Sprintf("%c:%s", r, note), 6)) + 1
	}
	return y + 2
}

func (a *app) drawGrid(y int, steps []bool, next int) {
	for i, on := range steps {
		r := '.'
		if on {
			r = 'x'
		}
		style := tcell.StyleDefault
		if i == a.cursor {
			style = style.Reverse(true)
		}
		if i == next {
			style = style.Underline(true)
		}
		a.screen.SetContent(i*2, y, r, nil, style)
	}
}

var panelHelp = [...]string{
	"keys a-;  z/x octave  space pedal  ^R record  ^P play take  ^S save take",
	"a-j chord (shift minor)  q-y open string  u strum direction  m pattern  n tuning",
	"a-l pads  m play/stop  n next pattern  b metronome",
	"letters play pads  shift rolls",
	"keys a-;  z/x octave  ←/→ step  enter toggle  m sequence  c clear  b/n preset  v lfo wave  ,/. lfo depth",
}

func (a *app) drawHelp(y int) {
	dim := tcell.StyleDefault.Dim(true)
	a.text(0, y, dim, panelHelp[a.panel])
	a.text(0, y+1, dim, "tab/F1-F5 panel  -/= volume  _/+ master  ↑/↓ tempo  backspace stop all  esc quit")
}

// text draws s at x,y clipped to the screen and returns the column after it
func (a *app) text(x, y int, style tcell.Style, s string) int {
	w, _ := a.screen.Size()
	if x >= w {
		return x
	}
	s = runewidth.Truncate(s, w-x, "…")
	for _, r := range s {
		a.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return 0
}

func tuningNames() []string {
	names := make([]string, 0, len(studio.Tunings))
	for n := range studio.Tunings {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
