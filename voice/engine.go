package voice

import (
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lixenwraith/vi-studio/audio"
	"github.com/lixenwraith/vi-studio/constant"
	"github.com/lixenwraith/vi-studio/core"
	"github.com/lixenwraith/vi-studio/envelope"
	"github.com/lixenwraith/vi-studio/noise"
	"github.com/lixenwraith/vi-studio/pitch"
	"github.com/lixenwraith/vi-studio/status"
)

var (
	ErrAudioUnavailable = errors.New("audio unavailable")
	ErrVoiceLimit       = errors.New("voice limit reached")
)

// unavailableError matches ErrAudioUnavailable and keeps the audio failure behind it
type unavailableError struct {
	op  string
	err error
}

func unavailable(op string, err error) error {
	return &unavailableError{op: op, err: err}
}

func (u *unavailableError) Error() string {
	if u.err == nil {
		return ErrAudioUnavailable.Error() + ": " + u.op
	}
	return ErrAudioUnavailable.Error() + ": " + u.op + ": " + u.err.Error()
}

func (u *unavailableError) Is(target error) bool { return target == ErrAudioUnavailable }
func (u *unavailableError) Unwrap() error        { return u.err }

// Modulator is an audio-rate source that can drive a param, such as an LFO gain stage
type Modulator interface {
	ConnectParam(p *audio.Param) error
}

// Options configures an Engine
type Options struct {
	Output    audio.Node // Default: the context destination
	MaxVoices int        // Default constant.DefaultMaxVoices
	Steal     core.VoiceStealStrategy
	Modulator Modulator // Connected to every voice filter cutoff
	Noise     *noise.Bank
	Metrics   *status.Registry
}

// Engine builds, schedules and tears down voices for one instrument
//
// Locking: mu is taken before any context lock; scheduled callbacks
// run with no lock held and take mu themselves
type Engine struct {
	mu   sync.Mutex
	ctx  *audio.Context
	bus  *audio.Gain
	opts Options

	pool      *Pool
	voices    []*Voice            // Counted toward the cap, in trigger order
	fading    map[*Voice]struct{} // Stolen, no longer counted
	sustain   bool
	sustained map[string]*Voice
	nextID    uint64
	closed    bool

	active    *atomic.Int64
	triggered *atomic.Int64
	stolen    *atomic.Int64
	disposed  *atomic.Int64
	failures  *atomic.Int64
}

// NewEngine creates an engine whose bus feeds opts.Output
func NewEngine(ctx *audio.Context, opts Options) (*Engine, error) {
	if opts.MaxVoices <= 0 {
		opts.MaxVoices = constant.DefaultMaxVoices
	}
	if opts.Output == nil {
		opts.Output = ctx.Destination()
	}
	if opts.Noise == nil {
		opts.Noise = noise.NewBank(ctx.SampleRate(), nil)
	}

	bus, err := ctx.NewGain(1)
	if err != nil {
		return nil, unavailable("engine bus", err)
	}
	if err := bus.Connect(opts.Output); err != nil {
		bus.Dispose()
		return nil, unavailable("engine bus", err)
	}

	m := opts.Metrics
	return &Engine{
		ctx:       ctx,
		bus:       bus,
		opts:      opts,
		pool:      NewPool(),
		sustained: make(map[string]*Voice),
		fading:    make(map[*Voice]struct{}),
		active:    m.Int(status.VoiceActive),
		triggered: m.Int(status.VoiceTriggered),
		stolen:    m.Int(status.VoiceStolen),
		disposed:  m.Int(status.VoiceDisposed),
		failures:  m.Int(status.VoiceErrors),
	}, nil
}

// Context returns the audio environment
func (e *Engine) Context() *audio.Context {
	return e.ctx
}

// Bus returns the engine output stage every voice connects into
func (e *Engine) Bus() *audio.Gain {
	return e.bus
}

// Trigger starts a voice for cfg at freq Hz
// A non-empty key holds the voice in the pool; triggering a held key returns the held voice
func (e *Engine) Trigger(cfg Config, freq float64, key string) (*Voice, error) {
	if err := pitch.Validate(freq); err != nil {
		e.failures.Add(1)
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		e.failures.Add(1)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if key != "" {
		if v, ok := e.pool.Get(key); ok {
			delete(e.sustained, key)
			return v, nil
		}
	}

	if e.closed {
		return nil, unavailable("engine closed", nil)
	}
	if st := e.ctx.State(); st != audio.StateRunning {
		e.failures.Add(1)
		return nil, unavailable(fmt.Sprintf("context %s", st), nil)
	}
	if len(e.voices) >= e.opts.MaxVoices && e.opts.Steal == core.StealNone {
		e.failures.Add(1)
		return nil, ErrVoiceLimit
	}

	v, err := e.build(cfg, freq, key)
	if err != nil {
		e.failures.Add(1)
		log.Printf("voice: trigger %.2fHz failed: %v", freq, err)
		return nil, unavailable("build voice", err)
	}
	if err := e.attach(v); err != nil {
		v.teardown()
		e.failures.Add(1)
		return nil, unavailable("connect voice", err)
	}

	// Steal only once the new voice is connected
	for len(e.voices) >= e.opts.MaxVoices {
		e.steal(v.start)
	}

	e.nextID++
	v.id = e.nextID
	v.state = core.VoiceSounding
	v.timers = append(v.timers, e.ctx.At(v.stop, func() { e.expire(v) }))

	e.voices = append(e.voices, v)
	if key != "" {
		e.pool.Set(key, v)
	}
	e.triggered.Add(1)
	e.active.Add(1)
	return v, nil
}

// build creates and schedules the voice graph without connecting it to the bus
// On failure every node created so far is disposed
func (e *Engine) build(cfg Config, freq float64, key string) (_ *Voice, err error) {
	now := e.ctx.CurrentTime()
	v := &Voice{
		key:    key,
		engine: e,
		cfg:    cfg,
		pitch:  freq,
		start:  now,
		stop:   now + cfg.LifetimeOrDefault(),
	}
	defer func() {
		if err != nil {
			v.teardown()
		}
	}()

	if v.amp, err = e.ctx.NewGain(0); err != nil {
		return nil, err
	}
	v.nodes = append(v.nodes, v.amp)

	var sink audio.Node = v.amp
	if cfg.Filter != nil {
		if v.filter, err = e.newFilter(v, cfg.Filter, now); err != nil {
			return nil, err
		}
		if err = v.filter.Connect(v.amp); err != nil {
			return nil, err
		}
		if e.opts.Modulator != nil {
			if err = e.opts.Modulator.ConnectParam(v.filter.Frequency()); err != nil {
				return nil, err
			}
		}
		sink = v.filter
	}

	for i := range cfg.Layers {
		if err = e.buildLayer(v, &cfg.Layers[i], sink, now); err != nil {
			return nil, err
		}
	}

	if len(cfg.Contour) > 0 {
		if _, err = envelope.ApplyContour(v.amp.Gain(), cfg.Contour, now); err != nil {
			return nil, err
		}
	} else if err = envelope.Apply(v.amp.Gain(), cfg.Envelope, now); err != nil {
		return nil, err
	}

	for _, g := range v.gens {
		if err = g.Start(now); err != nil {
			return nil, err
		}
		if err = g.Stop(v.stop); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (e *Engine) buildLayer(v *Voice, spec *OscillatorSpec, sink audio.Node, now float64) error {
	var src interface {
		audio.Node
		generator
		Connect(audio.Node) error
	}

	if spec.Wave == core.WaveNoise {
		buf, err := e.opts.Noise.Get(spec.NoiseDuration, spec.NoiseDecay)
		if err != nil {
			return err
		}
		bs, err := e.ctx.NewBufferSource(buf)
		if err != nil {
			return err
		}
		v.nodes = append(v.nodes, bs)
		src = bs
	} else {
		f0 := spec.frequency(v.pitch)
		osc, err := e.ctx.NewOscillator(spec.Wave, f0)
		if err != nil {
			return err
		}
		v.nodes = append(v.nodes, osc)
		if spec.Detune != 0 {
			if err := osc.Detune().SetValueAtTime(spec.Detune, now); err != nil {
				return errors.Wrap(err, "detune")
			}
		}
		if s := spec.Sweep; s != nil {
			if err := sweep(osc.Frequency(), f0, s, now); err != nil {
				return errors.Wrap(err, "pitch sweep")
			}
		}
		src = osc
	}
	v.gens = append(v.gens, src)

	var out audio.Node = src
	if spec.Filter != nil {
		lf, err := e.newFilter(v, spec.Filter, now)
		if err != nil {
			return err
		}
		if err := src.Connect(lf); err != nil {
			return err
		}
		out = lf
	}

	lg, err := e.ctx.NewGain(spec.weight())
	if err != nil {
		return err
	}
	v.nodes = append(v.nodes, lg)
	if err := connect(out, lg); err != nil {
		return err
	}

	if spec.Envelope == nil {
		return lg.Connect(sink)
	}
	env := spec.Envelope.Scaled(spec.weight())
	if err := envelope.Apply(lg.Gain(), env, now); err != nil {
		return err
	}
	v.direct = append(v.direct, directLayer{gain: lg, env: env})
	return nil
}

func sweep(p *audio.Param, f0 float64, s *Sweep, now float64) error {
	if err := p.SetValueAtTime(f0, now); err != nil {
		return err
	}
	if s.Curve == envelope.CurveLinear {
		return p.LinearRampToValueAtTime(f0*s.To, now+s.Time)
	}
	return p.ExponentialRampToValueAtTime(f0*s.To, now+s.Time)
}

func (e *Engine) newFilter(v *Voice, spec *FilterSpec, now float64) (*audio.Biquad, error) {
	f, err := e.ctx.NewBiquad(spec.Type, spec.Cutoff, spec.Q)
	if err != nil {
		return nil, err
	}
	v.nodes = append(v.nodes, f)
	if spec.Gain != 0 {
		if err := f.Gain().SetValueAtTime(spec.Gain, now); err != nil {
			return nil, errors.Wrap(err, "filter gain")
		}
	}
	if spec.Envelope != nil {
		if err := envelope.ApplyCutoff(f.Frequency(), spec.Cutoff, *spec.Envelope, now); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// attach connects a built voice to the bus
func (e *Engine) attach(v *Voice) error {
	if v.hasAmpLayers() {
		if err := v.amp.Connect(e.bus); err != nil {
			return err
		}
	}
	for _, d := range v.direct {
		if err := d.gain.Connect(e.bus); err != nil {
			return err
		}
	}
	return nil
}

// Release starts the release of v; no-op unless it is sounding
// With the sustain pedal down, keyed voices are deferred until the pedal lifts
func (e *Engine) Release(v *Voice) {
	if v == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.release(v)
}

// ReleaseKey releases the voice held under key, if any
func (e *Engine) ReleaseKey(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.pool.Get(key); ok {
		e.release(v)
	}
}

func (e *Engine) release(v *Voice) {
	if v.state != core.VoiceSounding {
		return
	}
	if e.sustain && v.key != "" {
		e.sustained[v.key] = v
		return
	}
	e.releaseNow(v)
}

func (e *Engine) releaseNow(v *Voice) {
	now := e.ctx.CurrentTime()
	v.state = core.VoiceReleasing
	e.unkey(v)

	end, err := v.release(now)
	if err != nil {
		e.failures.Add(1)
		log.Printf("voice: release %d (%s): %v", v.id, v.key, err)
	}
	end += constant.StopGuard.Seconds()
	e.stopAt(v, end)
	v.timers = append(v.timers, e.ctx.At(end, func() { e.expire(v) }))
}

// unkey drops v from the pool and the sustained set so the key can sound again
func (e *Engine) unkey(v *Voice) {
	if v.key == "" {
		return
	}
	if cur, ok := e.pool.Get(v.key); ok && cur == v {
		e.pool.Delete(v.key)
	}
	if cur, ok := e.sustained[v.key]; ok && cur == v {
		delete(e.sustained, v.key)
	}
}

// SetSustain sets the pedal; lifting it releases every deferred voice
func (e *Engine) SetSustain(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sustain = on
	if on {
		return
	}
	for _, v := range e.sustained {
		e.releaseNow(v)
	}
	clear(e.sustained)
}

// Sustain reports the pedal state
func (e *Engine) Sustain() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sustain
}

// Sustained returns the number of releases deferred by the pedal
func (e *Engine) Sustained() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sustained)
}

// IsSounding reports whether a voice is held under key
func (e *Engine) IsSounding(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.pool.Get(key)
	return ok && v.state == core.VoiceSounding
}

// Held returns the held keys, sorted
func (e *Engine) Held() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.Keys()
}

// ActiveCount returns the voices counted toward the cap (sounding and releasing)
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// SetMaxVoices changes the cap; excess voices are stolen on the next trigger
func (e *Engine) SetMaxVoices(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.MaxVoices = max(constant.MinMaxVoices, min(n, constant.MaxMaxVoices))
}

// SetBusGain ramps the engine bus to g over BusRampTime
// A negative or non-finite g is rejected and leaves the bus unchanged
func (e *Engine) SetBusGain(g float64) error {
	if !finite(g) || g < 0 {
		return errors.Errorf("invalid bus gain %v", g)
	}
	now := e.ctx.CurrentTime()
	return rampFrom(e.bus.Gain(), now, g, now+constant.BusRampTime.Seconds())
}

// rampFrom holds p at its current value from t and ramps it linearly to v at end
func rampFrom(p *audio.Param, t, v, end float64) error {
	cur := p.ValueAt(t)
	if err := p.CancelScheduledValues(t); err != nil {
		return err
	}
	if err := p.SetValueAtTime(cur, t); err != nil {
		return err
	}
	return p.LinearRampToValueAtTime(v, end)
}

// steal frees one slot under the cap, caller holds mu
func (e *Engine) steal(now float64) {
	victim := 0
	switch e.opts.Steal {
	case core.StealQuietest:
		quietest := math.Inf(1)
		for i, v := range e.voices {
			if l := v.level(now); l < quietest {
				quietest, victim = l, i
			}
		}
	default:
		// voices is in trigger order, so index 0 is the oldest
	}

	v := e.voices[victim]
	e.voices = append(e.voices[:victim], e.voices[victim+1:]...)
	e.active.Add(-1)
	e.unkey(v)
	v.state = core.VoiceReleasing
	v.stole = true
	e.fading[v] = struct{}{}

	fade := constant.StealFade.Seconds()
	if err := v.fade(now, fade); err != nil {
		e.failures.Add(1)
		log.Printf("voice: fade %d (%s): %v", v.id, v.key, err)
	}
	e.stopAt(v, now+fade)
	v.timers = append(v.timers, e.ctx.At(now+fade+constant.StopGuard.Seconds(), func() { e.expire(v) }))

	e.stolen.Add(1)
	log.Printf("voice: cap %d reached, stole voice %d (%s)", e.opts.MaxVoices, v.id, v.key)
}

// expire disposes v from a scheduled callback
func (e *Engine) expire(v *Voice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispose(v)
}

// dispose tears v down and cancels its outstanding timers, caller holds mu
func (e *Engine) dispose(v *Voice) {
	if v.state == core.VoiceDisposed {
		return
	}
	for _, id := range v.timers {
		e.ctx.Cancel(id)
	}
	v.timers = nil
	v.teardown()
	v.state = core.VoiceDisposed
	e.unkey(v)
	delete(e.fading, v)

	for i, cur := range e.voices {
		if cur == v {
			e.voices = append(e.voices[:i], e.voices[i+1:]...)
			e.active.Add(-1)
			break
		}
	}
	e.disposed.Add(1)
}

// stopAt moves v's hard stop earlier, logging generators that refuse it
func (e *Engine) stopAt(v *Voice, t float64) {
	if err := v.stopAt(t); err != nil {
		e.failures.Add(1)
		log.Printf("voice: stop %d (%s): %v", v.id, v.key, err)
	}
}

// StopAll releases every sounding voice, ignoring the pedal
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range append([]*Voice(nil), e.voices...) {
		if v.state == core.VoiceSounding {
			e.releaseNow(v)
		}
	}
	clear(e.sustained)
}

// Close disposes every voice and the bus; later triggers fail
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, v := range append([]*Voice(nil), e.voices...) {
		e.dispose(v)
	}
	for v := range e.fading {
		e.dispose(v)
	}
	clear(e.sustained)
	e.bus.Dispose()
}

func connect(src, dst audio.Node) error {
	c, ok := src.(interface{ Connect(audio.Node) error })
	if !ok {
		return errors.New("node cannot connect")
	}
	return c.Connect(dst)
}
