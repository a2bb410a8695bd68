package recorder

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lixenwraith/vi-studio/clock"
)

type fakeTarget struct {
	log []string
	err error
}

func (f *fakeTarget) Press(note string) error {
	f.log = append(f.log, "+"+note)
	return f.err
}

func (f *fakeTarget) Release(note string) error {
	f.log = append(f.log, "-"+note)
	return f.err
}

func takeOf(t *testing.T) (*clock.Scheduler, *Recorder) {
	t.Helper()
	clk := clock.New()
	clk.Advance(3 * time.Second)
	r := New(clk, "piano")
	r.Start()
	r.NoteOn("C4")
	clk.Advance(250 * time.Millisecond)
	r.NoteOn("E4")
	clk.Advance(250 * time.Millisecond)
	r.NoteOff("C4")
	r.NoteOff("E4")
	clk.Advance(100 * time.Millisecond)
	return clk, r
}

func TestRecorderOffsets(t *testing.T) {
	clk, r := takeOf(t)
	if got := r.Elapsed(); got != 600*time.Millisecond {
		t.Errorf("Expected 600ms elapsed, got %v", got)
	}
	if n := r.Stop(); n != 4 {
		t.Fatalf("Expected 4 events, got %d", n)
	}

	want := []Event{
		{"C4", 0, EventStart},
		{"E4", 250, EventStart},
		{"C4", 500, EventEnd},
		{"E4", 500, EventEnd},
	}
	got := r.Events()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	// nothing is captured once stopped
	clk.Advance(time.Second)
	r.NoteOn("G4")
	if len(r.Events()) != 4 {
		t.Errorf("Expected events ignored while idle")
	}
	if r.Elapsed() != 0 {
		t.Errorf("Expected zero elapsed while idle")
	}
}

func TestRecorderRestartClears(t *testing.T) {
	_, r := takeOf(t)
	r.Start()
	if len(r.Events()) != 0 {
		t.Errorf("Expected a new take to start empty")
	}
	if !r.IsRecording() {
		t.Errorf("Expected recording")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	_, r := takeOf(t)
	r.Stop()

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"timeOffsetMs": 250`) {
		t.Errorf("Expected timeOffsetMs field in output:\n%s", buf.String())
	}

	rec, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if rec.Version != FormatVersion || rec.Instrument != "piano" {
		t.Errorf("Expected header preserved, got %q %q", rec.Version, rec.Instrument)
	}
	if rec.Duration != 500 {
		t.Errorf("Expected duration 500, got %d", rec.Duration)
	}
	if len(rec.Notes) != 4 || rec.Notes[1].Note != "E4" {
		t.Errorf("Expected notes preserved, got %+v", rec.Notes)
	}
}

func TestWriteEmpty(t *testing.T) {
	r := New(clock.New(), "piano")
	if err := r.WriteJSON(&bytes.Buffer{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		first   string
	}{
		{"sorted on read", `{"notes":[{"note":"D4","timeOffsetMs":90,"type":"start"},{"note":"C4","timeOffsetMs":10,"type":"start"}]}`, nil, "C4"},
		{"bad type", `{"notes":[{"note":"C4","timeOffsetMs":0,"type":"hold"}]}`, ErrInvalidEvent, ""},
		{"negative offset", `{"notes":[{"note":"C4","timeOffsetMs":-5,"type":"start"}]}`, ErrInvalidEvent, ""},
		{"missing note", `{"notes":[{"timeOffsetMs":0,"type":"end"}]}`, ErrInvalidEvent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ReadJSON(strings.NewReader(tt.doc))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadJSON failed: %v", err)
			}
			if rec.Notes[0].Note != tt.first {
				t.Errorf("Expected %s first, got %s", tt.first, rec.Notes[0].Note)
			}
		})
	}

	if _, err := ReadJSON(strings.NewReader("{")); err == nil {
		t.Errorf("Expected malformed JSON rejected")
	}
}

func TestPlaySchedulesEvents(t *testing.T) {
	clk, r := takeOf(t)
	r.Stop()
	target := &fakeTarget{}

	if _, err := r.Play(r.Events(), target); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if clk.Pending() != 4 {
		t.Errorf("Expected 4 scheduled events, got %d", clk.Pending())
	}

	clk.Advance(0)
	if fmt.Sprint(target.log) != "[+C4]" {
		t.Errorf("Expected first press immediately, got %v", target.log)
	}
	clk.Advance(249 * time.Millisecond)
	if len(target.log) != 1 {
		t.Errorf("Expected nothing before 250ms, got %v", target.log)
	}
	clk.Advance(time.Second)
	if fmt.Sprint(target.log) != "[+C4 +E4 -C4 -E4]" {
		t.Errorf("Expected recorded order replayed, got %v", target.log)
	}
}

func TestPlayCancel(t *testing.T) {
	clk, r := takeOf(t)
	r.Stop()
	target := &fakeTarget{}

	cancel, err := r.Play(r.Events(), target)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	clk.Advance(300 * time.Millisecond)
	cancel()
	cancel()
	clk.Advance(time.Second)

	if len(target.log) != 2 {
		t.Errorf("Expected playback cut after two events, got %v", target.log)
	}
	if clk.Pending() != 0 {
		t.Errorf("Expected no pending events, got %d", clk.Pending())
	}
}

func TestPlayTargetErrorsDoNotStop(t *testing.T) {
	clk, r := takeOf(t)
	r.Stop()
	target := &fakeTarget{err: errors.New("voice limit")}
	if _, err := r.Play(r.Events(), target); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	clk.Advance(time.Second)
	if len(target.log) != 4 {
		t.Errorf("Expected every event delivered despite errors, got %v", target.log)
	}
}

func TestPlayRejectsInvalid(t *testing.T) {
	r := New(clock.New(), "piano")
	_, err := r.Play([]Event{{"C4", 0, "hold"}}, &fakeTarget{})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Expected ErrInvalidEvent, got %v", err)
	}
}
