// Package recorder captures note presses against the scheduler and replays them
package recorder

import (
	"cmp"
	"encoding/json"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/clock"
)

const FormatVersion = "1.0"

var (
	ErrInvalidEvent = errors.New("invalid recorded event")
	ErrEmpty        = errors.New("recording has no events")
)

type EventType string

const (
	EventStart EventType = "start"
	EventEnd   EventType = "end"
)

// Event is one press or release, offset from the start of the take
type Event struct {
	Note   string    `json:"note"`
	Offset int64     `json:"timeOffsetMs"`
	Type   EventType `json:"type"`
}

func (e Event) validate() error {
	if e.Note == "" || e.Offset < 0 || (e.Type != EventStart && e.Type != EventEnd) {
		return errors.Wrapf(ErrInvalidEvent, "%+v", e)
	}
	return nil
}

// Recording is the exported document
type Recording struct {
	Version    string    `json:"version"`
	Instrument string    `json:"instrument"`
	Notes      []Event   `json:"notes"`
	Duration   int64     `json:"duration"`
	Created    time.Time `json:"created"`
}

// Target receives replayed events, usually an instrument controller
type Target interface {
	Press(note string) error
	Release(note string) error
}

// Recorder logs note events relative to Start, measured on the scheduler clock
type Recorder struct {
	mu         sync.Mutex
	clk        *clock.Scheduler
	instrument string

	recording bool
	start     time.Duration
	events    []Event
}

func New(clk *clock.Scheduler, instrument string) *Recorder {
	return &Recorder{clk: clk, instrument: instrument}
}

// Start begins a new take, dropping the previous one
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = true
	r.start = r.clk.Now()
	r.events = nil
}

// Stop ends the take and returns the number of events captured
func (r *Recorder) Stop() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	return len(r.events)
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Elapsed returns the length of the running take, 0 when idle
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0
	}
	return r.clk.Now() - r.start
}

func (r *Recorder) NoteOn(note string) {
	r.add(note, EventStart)
}

func (r *Recorder) NoteOff(note string) {
	r.add(note, EventEnd)
}

func (r *Recorder) add(note string, typ EventType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	r.events = append(r.events, Event{
		Note:   note,
		Offset: (r.clk.Now() - r.start).Milliseconds(),
		Type:   typ,
	})
}

// Events returns a copy of the captured events in time order
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Recording snapshots the take as an exportable document
func (r *Recorder) Recording() Recording {
	events := r.Events()
	return Recording{
		Version:    FormatVersion,
		Instrument: r.instrument,
		Notes:      events,
		Duration:   duration(events),
		Created:    time.Now().UTC(),
	}
}

func duration(events []Event) int64 {
	var d int64
	for _, e := range events {
		d = max(d, e.Offset)
	}
	return d
}

// WriteJSON exports the take
func (r *Recorder) WriteJSON(w io.Writer) error {
	rec := r.Recording()
	if len(rec.Notes) == 0 {
		return ErrEmpty
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(rec), "encode recording")
}

// ReadJSON parses an exported take; events are validated and sorted by offset
func ReadJSON(rd io.Reader) (*Recording, error) {
	var rec Recording
	if err := json.NewDecoder(rd).Decode(&rec); err != nil {
		return nil, errors.Wrap(err, "decode recording")
	}
	for _, e := range rec.Notes {
		if err := e.validate(); err != nil {
			return nil, err
		}
	}
	slices.SortStableFunc(rec.Notes, func(a, b Event) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	rec.Duration = duration(rec.Notes)
	return &rec, nil
}

// Play schedules events against t from the current clock time
// The returned func cancels every event not yet fired
func (r *Recorder) Play(events []Event, t Target) (cancel func(), err error) {
	for _, e := range events {
		if err := e.validate(); err != nil {
			return nil, err
		}
	}

	now := r.clk.Now()
	ids := make([]clock.ID, 0, len(events))
	for _, e := range events {
		ids = append(ids, r.clk.At(now+time.Duration(e.Offset)*time.Millisecond, func() {
			var err error
			if e.Type == EventStart {
				err = t.Press(e.Note)
			} else {
				err = t.Release(e.Note)
			}
			if err != nil {
				log.Printf("Playback %s %s failed: %v", e.Type, e.Note, err)
			}
		}))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, id := range ids {
				r.clk.Cancel(id)
			}
		})
	}, nil
}
