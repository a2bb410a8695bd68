package audio

import (
	"math"
	"sort"
)

type automationKind int

const (
	setValue automationKind = iota
	linearRamp
	exponentialRamp
)

// automation is one timeline event
// Ramps carry the start point captured at scheduling time, used when no earlier event exists
type automation struct {
	kind   automationKind
	t, v   float64
	t0, v0 float64
}

// Param is a time-automated numeric control (gain, frequency, Q, detune)
// Times are seconds on the owning context's clock
type Param struct {
	ctx   *Context
	owner *node

	def      float64
	min, max float64

	events []automation
	mods   []*node
	buf    []float64
}

func newParam(c *Context, owner *node, def, min, max float64) *Param {
	return &Param{
		ctx:   c,
		owner: owner,
		def:   def,
		min:   min,
		max:   max,
		buf:   make([]float64, c.quantum),
	}
}

// Value returns the automation value at the context's current time
func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.valueAt(p.ctx.nowSeconds())
}

// ValueAt returns the scheduled automation value at time t
// Modulation inputs are not included
func (p *Param) ValueAt(t float64) float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.valueAt(t)
}

// SetValue sets the value at the current time
func (p *Param) SetValue(v float64) error {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.insert(automation{kind: setValue, t: p.ctx.nowSeconds(), v: v})
}

// SetValueAtTime jumps to v at time t
func (p *Param) SetValueAtTime(v, t float64) error {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.insert(automation{kind: setValue, t: t, v: v})
}

// LinearRampToValueAtTime ramps linearly from the previous event to v, arriving at t
func (p *Param) LinearRampToValueAtTime(v, t float64) error {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.insertRamp(linearRamp, v, t)
}

// ExponentialRampToValueAtTime ramps exponentially from the previous event to v, arriving at t
// v must be positive: an exponential curve never reaches zero
func (p *Param) ExponentialRampToValueAtTime(v, t float64) error {
	if !(v > 0) {
		return ErrExponentialTarget
	}
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.insertRamp(exponentialRamp, v, t)
}

// CancelScheduledValues removes every event at or after t
func (p *Param) CancelScheduledValues(t float64) error {
	if err := checkTime(t); err != nil {
		return err
	}
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.cancelFrom(t)
	return nil
}

// CancelAndHoldAtTime removes every event at or after t and holds the value the timeline had at t
func (p *Param) CancelAndHoldAtTime(t float64) error {
	if err := checkTime(t); err != nil {
		return err
	}
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()

	v := p.valueAt(t)
	i := sort.Search(len(p.events), func(k int) bool { return p.events[k].t >= t })
	held := automation{kind: setValue, t: t, v: v}
	if i < len(p.events) && p.events[i].kind != setValue {
		// A ramp in progress is truncated to end at t
		held = p.events[i]
		held.t, held.v = t, v
	}
	p.cancelFrom(t)
	return p.insert(held)
}

// Events returns the number of scheduled events, for diagnostics
func (p *Param) Events() int {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return len(p.events)
}

func (p *Param) insertRamp(kind automationKind, v, t float64) error {
	now := p.ctx.nowSeconds()
	return p.insert(automation{kind: kind, t: t, v: v, t0: now, v0: p.valueAt(now)})
}

func (p *Param) insert(a automation) error {
	if math.IsNaN(a.v) || math.IsInf(a.v, 0) {
		return ErrInvalidValue
	}
	if err := checkTime(a.t); err != nil {
		return err
	}

	// Stable: equal times keep scheduling order, so a zero-length ramp lands after its start
	i := sort.Search(len(p.events), func(k int) bool { return p.events[k].t > a.t })
	p.events = append(p.events, automation{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = a
	return nil
}

func (p *Param) cancelFrom(t float64) {
	i := sort.Search(len(p.events), func(k int) bool { return p.events[k].t >= t })
	p.events = p.events[:i]
}

func checkTime(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return ErrInvalidValue
	}
	if t < 0 {
		return ErrNegativeTime
	}
	return nil
}

// valueAt evaluates the timeline, caller holds ctx.mu
func (p *Param) valueAt(t float64) float64 {
	ev := p.events
	i := sort.Search(len(ev), func(k int) bool { return ev[k].t > t })

	pt, pv := 0.0, p.def
	hasPrev := i > 0
	if hasPrev {
		pt, pv = ev[i-1].t, ev[i-1].v
	}

	if i < len(ev) && ev[i].kind != setValue {
		next := ev[i]
		if !hasPrev {
			pt, pv = next.t0, next.v0
		}
		if t < pt || next.t <= pt {
			return pv
		}
		frac := (t - pt) / (next.t - pt)
		switch next.kind {
		case linearRamp:
			return pv + (next.v-pv)*frac
		case exponentialRamp:
			if pv <= 0 || next.v <= 0 {
				return pv
			}
			return pv * math.Pow(next.v/pv, frac)
		}
	}
	return pv
}

// fill evaluates the param for every frame of the quantum, adding modulation and clamping
func (p *Param) fill(q *quantum) []float64 {
	buf := p.buf[:q.frames]
	p.prune(q.t0)

	switch n := len(p.events); {
	case n == 0:
		for i := range buf {
			buf[i] = p.def
		}
	case p.events[n-1].t <= q.t0:
		v := p.events[n-1].v
		for i := range buf {
			buf[i] = v
		}
	default:
		for i := range buf {
			buf[i] = p.valueAt(q.time(i))
		}
	}

	for _, m := range p.mods {
		mod := m.pull(q)
		for i := range buf {
			buf[i] += mod[i]
		}
	}

	for i, v := range buf {
		if v < p.min {
			buf[i] = p.min
		} else if v > p.max {
			buf[i] = p.max
		}
	}
	return buf
}

// prune drops events fully superseded before t
func (p *Param) prune(t float64) {
	drop := 0
	for drop+1 < len(p.events) && p.events[drop+1].t <= t {
		drop++
	}
	if drop > 0 {
		p.events = append(p.events[:0], p.events[drop:]...)
	}
}
