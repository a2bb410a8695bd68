package audio

import (
	"sync"
	"time"

	"github.com/lixenwraith/vi-studio/clock"
	"github.com/lixenwraith/vi-studio/constant"
)

// Options configures a Context
type Options struct {
	SampleRate int              // Default constant.AudioSampleRate
	MaxNodes   int              // 0 = unlimited
	Clock      *clock.Scheduler // Default: a fresh scheduler at time zero
}

// Context is the audio environment every graph is built in
// It owns the render clock: virtual time only advances as frames are rendered,
// so scheduled callbacks fire on the exact frame of their deadline
//
// Locking: public node/param methods take mu; rendering holds mu only while
// computing samples and fires scheduler callbacks with mu released
type Context struct {
	mu sync.Mutex

	sampleRate int
	quantum    int
	dt         float64
	clock      *clock.Scheduler

	state    State
	frame    int64
	q        quantum
	dest     *Destination
	live     int
	maxNodes int

	scratch []float64
	stream  []float64
}

// NewContext creates a running context
func NewContext(opts Options) (*Context, error) {
	sr := opts.SampleRate
	if sr == 0 {
		sr = constant.AudioSampleRate
	}
	if sr < constant.MinSampleRate || sr > constant.MaxSampleRate {
		return nil, ErrInvalidSampleRate
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	c := &Context{
		sampleRate: sr,
		quantum:    constant.RenderQuantum,
		dt:         1.0 / float64(sr),
		clock:      clk,
		state:      StateRunning,
		maxNodes:   opts.MaxNodes,
		scratch:    make([]float64, constant.RenderQuantum),
	}

	// The destination lives for the context's lifetime and is not counted as a live node
	d := &Destination{}
	d.node = &node{ctx: c, impl: d, in: make([]float64, c.quantum), out: make([]float64, c.quantum)}
	d.gain = newParam(c, d.node, 1, 0, 4)
	c.dest = d

	return c, nil
}

// SampleRate returns frames per second
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// Clock returns the scheduler driven by this context
func (c *Context) Clock() *clock.Scheduler {
	return c.clock
}

// CurrentTime returns the audio clock in seconds
func (c *Context) CurrentTime() float64 {
	return c.clock.Now().Seconds()
}

func (c *Context) nowSeconds() float64 {
	return c.clock.Now().Seconds()
}

// At schedules fn at audio time t (seconds)
func (c *Context) At(t float64, fn func()) clock.ID {
	return c.clock.At(clock.Seconds(t), fn)
}

// Cancel removes a callback scheduled with At
func (c *Context) Cancel(id clock.ID) bool {
	return c.clock.Cancel(id)
}

// Destination returns the shared output node
func (c *Context) Destination() *Destination {
	return c.dest
}

// State returns the lifecycle state
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Suspend freezes the clock and silences output
func (c *Context) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	c.state = StateSuspended
	return nil
}

// Resume restarts rendering after Suspend
func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	c.state = StateRunning
	return nil
}

// Close stops rendering permanently and refuses new nodes
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	return nil
}

// LiveNodes returns the number of created, undisposed nodes
func (c *Context) LiveNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// SetMaxNodes changes the node limit, 0 = unlimited
func (c *Context) SetMaxNodes(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxNodes = n
}

// alloc creates a node for impl, caller holds mu
func (c *Context) alloc(impl renderer) (*node, error) {
	if c.state == StateClosed {
		return nil, ErrClosed
	}
	if c.maxNodes > 0 && c.live >= c.maxNodes {
		return nil, ErrNodeLimit
	}
	c.live++
	return &node{
		ctx:  c,
		impl: impl,
		in:   make([]float64, c.quantum),
		out:  make([]float64, c.quantum),
	}, nil
}

// Stream implements beep.Streamer, rendering the mono graph to both channels
func (c *Context) Stream(samples [][2]float64) (n int, ok bool) {
	if c.State() == StateClosed {
		return 0, false
	}

	if cap(c.stream) < len(samples) {
		c.stream = make([]float64, len(samples))
	}
	buf := c.stream[:len(samples)]
	c.render(buf)

	for i, v := range buf {
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (c *Context) Err() error {
	return nil
}

// Render renders n frames and returns them
func (c *Context) Render(n int) []float64 {
	out := make([]float64, n)
	c.render(out)
	return out
}

// Advance renders and discards d of audio, firing every callback due in that span
// No-op unless running
func (c *Context) Advance(d time.Duration) {
	target := c.clock.Now() + d

	for {
		c.mu.Lock()
		if c.state != StateRunning {
			c.mu.Unlock()
			return
		}
		remaining := c.frameAt(target) - c.frame
		c.mu.Unlock()

		if remaining <= 0 {
			break
		}
		n := int(min(remaining, int64(len(c.scratch))))
		c.render(c.scratch[:n])
	}
	c.clock.AdvanceTo(target)
}

// render fills out frame by frame, splitting at scheduler deadlines
func (c *Context) render(out []float64) {
	for len(out) > 0 {
		c.mu.Lock()
		now := c.timeOf(c.frame)
		c.mu.Unlock()
		c.clock.AdvanceTo(now)

		c.mu.Lock()
		if c.state != StateRunning {
			c.mu.Unlock()
			clear(out)
			return
		}

		n := min(len(out), c.quantum)
		if next, ok := c.clock.Next(); ok {
			if k := c.frameAt(next) - c.frame; k > 0 && k < int64(n) {
				n = int(k)
			}
		}

		c.q.id++
		c.q.frames = n
		c.q.t0 = float64(c.frame) * c.dt
		c.q.dt = c.dt
		copy(out[:n], c.dest.pull(&c.q))

		c.frame += int64(n)
		end := c.timeOf(c.frame)
		c.mu.Unlock()

		c.clock.AdvanceTo(end)
		out = out[n:]
	}
}

// frameAt returns the first frame whose time is at or after d
func (c *Context) frameAt(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sr := int64(c.sampleRate)
	sec := int64(d / time.Second)
	rem := int64(d % time.Second)
	return sec*sr + (rem*sr+int64(time.Second)-1)/int64(time.Second)
}

// timeOf returns the time of a frame, rounded down to the nanosecond
func (c *Context) timeOf(frame int64) time.Duration {
	sr := int64(c.sampleRate)
	return time.Duration(frame/sr)*time.Second + time.Duration((frame%sr)*int64(time.Second)/sr)
}
