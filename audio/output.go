package audio

import (
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/clock"
	"github.com/lixenwraith/vi-studio/constant"
)

// sink is the device the context streams into
type sink interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

// speakerSink is the beep speaker (oto backend)
type speakerSink struct{}

func (speakerSink) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerSink) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerSink) Lock()                { speaker.Lock() }
func (speakerSink) Unlock()              { speaker.Unlock() }
func (speakerSink) Close() {
	speaker.Clear()
	speaker.Close()
}

// OutputService streams a Context to the sound device as a Service
// The speaker is tried first, then a command-line player
// Without either it falls back to a wall-clock driver so scheduling keeps working (silent mode)
type OutputService struct {
	ctx    *Context
	sinks  []sink // Candidates in order
	sink   sink   // The one that opened
	ctrl   *beep.Ctrl
	volume *effects.Volume
	driver *clock.Driver

	muted   bool
	master  float64
	silent  atomic.Bool
	running atomic.Bool
	device  bool

	mu sync.Mutex
}

// NewOutputService creates the output service for ctx
func NewOutputService(ctx *Context) *OutputService {
	return &OutputService{
		ctx:    ctx,
		sinks:  []sink{speakerSink{}, &pipeSink{}},
		master: constant.DefaultMasterVolume,
	}
}

// Name implements Service
func (o *OutputService) Name() string {
	return "audio"
}

// Dependencies implements Service
func (o *OutputService) Dependencies() []string {
	return nil
}

// Init implements Service
// args[0]: bool - muted (true = no device, clock driven in real time)
// args[1]: float64 - master volume 0.0-1.0
func (o *OutputService) Init(args ...any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(args) > 0 {
		if muted, ok := args[0].(bool); ok {
			o.muted = muted
		}
	}
	if len(args) > 1 {
		if vol, ok := args[1].(float64); ok {
			o.master = clamp01(vol)
		}
	}

	o.ctrl = &beep.Ctrl{Streamer: o.ctx}
	o.volume = newVolume(o.ctrl, o.master)
	return nil
}

// Start implements Service
// Device failure is not an error: the service degrades to silent mode
func (o *OutputService) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running.CompareAndSwap(false, true) {
		return errors.New("audio output already running")
	}
	if o.ctrl == nil {
		o.ctrl = &beep.Ctrl{Streamer: o.ctx}
		o.volume = newVolume(o.ctrl, o.master)
	}

	if !o.muted {
		rate := beep.SampleRate(o.ctx.SampleRate())
		for _, s := range o.sinks {
			if err := s.Init(rate, rate.N(constant.SpeakerBufferDuration)); err != nil {
				log.Printf("audio: output unavailable: %v", err)
				continue
			}
			o.sink = s
			o.device = true
			s.Play(o.volume)
			return nil
		}
		log.Printf("audio: no output opened, running silent")
	}

	o.silent.Store(true)
	o.driver = clock.NewDriver(constant.DriverTickInterval, o.ctx.Advance)
	if err := o.driver.Start(); err != nil {
		o.running.Store(false)
		return errors.Wrap(err, "audio: start clock driver")
	}
	return nil
}

// Stop implements Service
func (o *OutputService) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running.CompareAndSwap(true, false) {
		return nil
	}

	if o.device {
		o.sink.Lock()
		o.ctrl.Paused = true
		o.sink.Unlock()
		o.sink.Close()
		o.device = false
	}
	if o.driver != nil {
		o.driver.Stop()
		o.driver = nil
	}
	return nil
}

// Suspend pauses the device stream and freezes the audio clock
func (o *OutputService) Suspend() error {
	o.setPaused(true)
	return o.ctx.Suspend()
}

// Resume restarts the device stream and the audio clock
func (o *OutputService) Resume() error {
	if err := o.ctx.Resume(); err != nil {
		return err
	}
	o.setPaused(false)
	return nil
}

func (o *OutputService) setPaused(paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return
	}
	if o.device {
		o.sink.Lock()
		defer o.sink.Unlock()
	}
	o.ctrl.Paused = paused
}

// SetMasterVolume updates the device fader (0.0-1.0)
func (o *OutputService) SetMasterVolume(vol float64) {
	vol = clamp01(vol)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.master = vol
	if o.volume == nil {
		return
	}
	if o.device {
		o.sink.Lock()
		defer o.sink.Unlock()
	}
	setVolume(o.volume, vol)
}

// MasterVolume returns the device fader level
func (o *OutputService) MasterVolume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.master
}

// IsSilent returns true when no device is attached
func (o *OutputService) IsSilent() bool {
	return o.silent.Load()
}

// IsRunning returns true between Start and Stop
func (o *OutputService) IsRunning() bool {
	return o.running.Load()
}

// Context returns the streamed context
func (o *OutputService) Context() *Context {
	return o.ctx
}

// Helper to create a volume effect safely
// math.Log2(0) is -Inf, so we handle 0 volume by making it silent
func newVolume(s beep.Streamer, vol float64) *effects.Volume {
	v := &effects.Volume{Streamer: s, Base: 2}
	setVolume(v, vol)
	return v
}

func setVolume(v *effects.Volume, vol float64) {
	if vol <= 0 {
		v.Volume = 0
		v.Silent = true
		return
	}
	v.Volume = math.Log2(vol)
	v.Silent = false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// WaitUntil blocks until the audio clock reaches t seconds or timeout elapses
// Used by the offline tools and tests around the live driver
func (o *OutputService) WaitUntil(t float64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for o.ctx.CurrentTime() < t {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}
