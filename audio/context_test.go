package audio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/vi-studio/clock"
	"github.com/lixenwraith/vi-studio/core"
)

func ones(n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = 1
	}
	return buf
}

func TestNewContextValidation(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		wantErr bool
	}{
		{"default", 0, false},
		{"cd", 44100, false},
		{"too low", 4000, true},
		{"too high", 400000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContext(Options{SampleRate: tt.rate})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSampleRate) {
					t.Errorf("Expected ErrInvalidSampleRate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if c.State() != StateRunning {
				t.Errorf("Expected new context running, got %s", c.State())
			}
			if c.LiveNodes() != 0 {
				t.Errorf("Expected destination not counted as live, got %d", c.LiveNodes())
			}
		})
	}
}

func TestAdvanceFiresCallbacksAtDeadline(t *testing.T) {
	c := newTestContext(t)

	var firedAt float64
	fired := 0
	c.At(0.6, func() {
		fired++
		firedAt = c.CurrentTime()
	})

	c.Advance(599 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("Expected callback not fired before its deadline")
	}
	c.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("Expected callback fired once, got %d", fired)
	}
	if !near(firedAt, 0.6, 1e-9) {
		t.Errorf("Expected callback to observe its deadline 0.6, got %f", firedAt)
	}
	if !near(c.CurrentTime(), 0.6, 1e-9) {
		t.Errorf("Expected clock at 0.6 after advancing, got %f", c.CurrentTime())
	}
}

func TestCallbackSplitsRenderBlock(t *testing.T) {
	c := newTestContext(t)

	src, _ := c.NewBufferSource(ones(1024))
	g, _ := c.NewGain(1)
	src.Connect(g)
	g.Connect(c.Destination())
	src.Start(0)

	// 441 frames = 10ms at 44.1kHz, inside the first 128-frame quanta
	c.At(0.01, func() {
		g.Gain().SetValue(0)
	})

	out := c.Render(512)
	if out[440] != 1 {
		t.Errorf("Expected full gain just before the callback, got %f", out[440])
	}
	if out[442] != 0 {
		t.Errorf("Expected gain change applied right after the callback, got %f", out[442])
	}
}

func TestRenderSineOscillator(t *testing.T) {
	c := newTestContext(t)

	// 441Hz has a period of exactly 100 frames
	osc, err := c.NewOscillator(core.WaveSine, 441)
	if err != nil {
		t.Fatalf("Failed to create oscillator: %v", err)
	}
	osc.Connect(c.Destination())
	osc.Start(0)

	out := c.Render(200)
	if !near(out[0], 0, 1e-9) {
		t.Errorf("Expected sine to start at 0, got %f", out[0])
	}
	if !near(out[25], 1, 1e-6) {
		t.Errorf("Expected peak at quarter period, got %f", out[25])
	}
	if !near(out[75], -1, 1e-6) {
		t.Errorf("Expected trough at three quarters, got %f", out[75])
	}
	if !near(out[125], 1, 1e-6) {
		t.Errorf("Expected second period peak, got %f", out[125])
	}
}

func TestOscillatorStartWindow(t *testing.T) {
	c := newTestContext(t)
	osc, _ := c.NewOscillator(core.WaveSquare, 441)
	osc.Connect(c.Destination())

	if err := osc.Stop(1); err == nil {
		t.Errorf("Expected stop before start to fail")
	}
	osc.Start(0.01)
	osc.Stop(0.02)
	if err := osc.Start(0.5); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}

	out := c.Render(1323)
	if out[400] != 0 {
		t.Errorf("Expected silence before start, got %f", out[400])
	}
	if out[442] != 1 {
		t.Errorf("Expected square high after start, got %f", out[442])
	}
	if out[1000] != 0 {
		t.Errorf("Expected silence after stop, got %f", out[1000])
	}
}

func TestOscillatorRejectsNoise(t *testing.T) {
	c := newTestContext(t)
	if _, err := c.NewOscillator(core.WaveNoise, 440); err == nil {
		t.Errorf("Expected noise waveform rejected by oscillator")
	}
	if c.LiveNodes() != 0 {
		t.Errorf("Expected no node allocated, got %d", c.LiveNodes())
	}
}

func TestWaveShapes(t *testing.T) {
	tests := []struct {
		wave  core.Waveform
		phase float64
		want  float64
	}{
		{core.WaveSquare, 0.1, 1},
		{core.WaveSquare, 0.6, -1},
		{core.WaveSawtooth, 0, -1},
		{core.WaveSawtooth, 0.5, 0},
		{core.WaveTriangle, 0, 0},
		{core.WaveTriangle, 0.25, 1},
		{core.WaveTriangle, 0.75, -1},
	}
	for _, tt := range tests {
		if got := waveSample(tt.wave, tt.phase); !near(got, tt.want, 1e-12) {
			t.Errorf("Expected %s(%f) = %f, got %f", tt.wave, tt.phase, tt.want, got)
		}
	}
}

func TestBufferSourceLoop(t *testing.T) {
	c := newTestContext(t)
	src, _ := c.NewBufferSource([]float64{1, 2, 3})
	src.Connect(c.Destination())
	src.Start(0)

	out := c.Render(5)
	want := []float64{1, 2, 3, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Expected one-shot frame %d = %f, got %f", i, want[i], out[i])
		}
	}

	c2 := newTestContext(t)
	looped, _ := c2.NewBufferSource([]float64{1, 2, 3})
	looped.SetLoop(true)
	looped.Connect(c2.Destination())
	looped.Start(0)

	out = c2.Render(5)
	want = []float64{1, 2, 3, 1, 2}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Expected looped frame %d = %f, got %f", i, want[i], out[i])
		}
	}
}

func TestGainAutomationRender(t *testing.T) {
	c := newTestContext(t)
	src, _ := c.NewBufferSource(ones(44100))
	g, _ := c.NewGain(0)
	src.Connect(g)
	g.Connect(c.Destination())
	src.Start(0)

	g.Gain().SetValueAtTime(0, 0)
	g.Gain().LinearRampToValueAtTime(1, 1)

	out := c.Render(22051)
	if !near(out[22050], 0.5, 1e-4) {
		t.Errorf("Expected half gain at 0.5s, got %f", out[22050])
	}
}

func TestParamModulationInput(t *testing.T) {
	c := newTestContext(t)
	src, _ := c.NewBufferSource(ones(256))
	g, _ := c.NewGain(0.5)
	src.Connect(g)
	g.Connect(c.Destination())

	modData := make([]float64, 256)
	for i := range modData {
		modData[i] = 0.25
	}
	mod, _ := c.NewBufferSource(modData)
	if err := mod.ConnectParam(g.Gain()); err != nil {
		t.Fatalf("Failed to connect modulator: %v", err)
	}

	src.Start(0)
	mod.Start(0)

	out := c.Render(64)
	if !near(out[10], 0.75, 1e-12) {
		t.Errorf("Expected modulation summed onto gain, got %f", out[10])
	}

	g.Dispose()
	if mod.Outputs() != 0 {
		t.Errorf("Expected modulator edge removed with its target, got %d outputs", mod.Outputs())
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	c := newTestContext(t)
	g, _ := c.NewGain(1)
	g.Connect(c.Destination())
	g.Connect(c.Destination())

	if got := c.Destination().Inputs(); got != 1 {
		t.Errorf("Expected single connection, got %d", got)
	}
}

func TestDisposeReleasesNode(t *testing.T) {
	c := newTestContext(t)
	src, _ := c.NewBufferSource(ones(16))
	g, _ := c.NewGain(1)
	src.Connect(g)
	g.Connect(c.Destination())

	if c.LiveNodes() != 2 {
		t.Fatalf("Expected 2 live nodes, got %d", c.LiveNodes())
	}

	g.Dispose()
	g.Dispose()

	if c.LiveNodes() != 1 {
		t.Errorf("Expected 1 live node after dispose, got %d", c.LiveNodes())
	}
	if c.Destination().Inputs() != 0 {
		t.Errorf("Expected destination detached, got %d inputs", c.Destination().Inputs())
	}
	if src.Outputs() != 0 {
		t.Errorf("Expected source detached, got %d outputs", src.Outputs())
	}
	if !g.Disposed() {
		t.Errorf("Expected node marked disposed")
	}
	if err := src.Connect(g); !errors.Is(err, ErrDisposed) {
		t.Errorf("Expected ErrDisposed connecting to a disposed node, got %v", err)
	}
}

func TestNodeLimit(t *testing.T) {
	c := newTestContext(t)
	c.SetMaxNodes(1)

	g, err := c.NewGain(1)
	if err != nil {
		t.Fatalf("Expected first node allocated, got %v", err)
	}
	if _, err := c.NewGain(1); !errors.Is(err, ErrNodeLimit) {
		t.Errorf("Expected ErrNodeLimit, got %v", err)
	}

	g.Dispose()
	if _, err := c.NewGain(1); err != nil {
		t.Errorf("Expected allocation after dispose, got %v", err)
	}
}

func TestForeignNodeRejected(t *testing.T) {
	a := newTestContext(t)
	b := newTestContext(t)
	g, _ := a.NewGain(1)

	if err := g.Connect(b.Destination()); !errors.Is(err, ErrForeignNode) {
		t.Errorf("Expected ErrForeignNode, got %v", err)
	}
}

func TestSuspendFreezesClock(t *testing.T) {
	c := newTestContext(t)
	src, _ := c.NewBufferSource(ones(1024))
	src.Connect(c.Destination())
	src.Start(0)

	c.Suspend()
	c.Advance(100 * time.Millisecond)
	if c.CurrentTime() != 0 {
		t.Errorf("Expected clock frozen while suspended, got %f", c.CurrentTime())
	}
	out := c.Render(16)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("Expected silence while suspended, frame %d = %f", i, v)
		}
	}

	c.Resume()
	c.Advance(10 * time.Millisecond)
	if !near(c.CurrentTime(), 0.01, 1e-9) {
		t.Errorf("Expected clock to resume, got %f", c.CurrentTime())
	}
}

func TestClosedContext(t *testing.T) {
	c := newTestContext(t)
	c.Close()

	if _, err := c.NewGain(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed creating nodes, got %v", err)
	}
	if err := c.Resume(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed resuming, got %v", err)
	}
	samples := make([][2]float64, 8)
	if n, ok := c.Stream(samples); n != 0 || ok {
		t.Errorf("Expected closed stream to end, got n=%d ok=%v", n, ok)
	}
}

func TestStreamDuplicatesChannels(t *testing.T) {
	c := newTestContext(t)
	osc, _ := c.NewOscillator(core.WaveSine, 441)
	osc.Connect(c.Destination())
	osc.Start(0)

	samples := make([][2]float64, 64)
	n, ok := c.Stream(samples)
	if n != 64 || !ok {
		t.Fatalf("Expected full stream, got n=%d ok=%v", n, ok)
	}
	for i, s := range samples {
		if s[0] != s[1] {
			t.Fatalf("Expected identical channels at frame %d, got %f/%f", i, s[0], s[1])
		}
	}
	if !near(c.CurrentTime(), 64.0/44100, 1e-9) {
		t.Errorf("Expected clock advanced by streamed frames, got %f", c.CurrentTime())
	}
}

func TestGraphCycleTerminates(t *testing.T) {
	c := newTestContext(t)
	src, _ := c.NewBufferSource(ones(512))
	g1, _ := c.NewGain(0.5)
	g2, _ := c.NewGain(0.5)
	src.Connect(g1)
	g1.Connect(g2)
	g2.Connect(g1)
	g2.Connect(c.Destination())
	src.Start(0)

	out := c.Render(512)
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("Expected finite feedback output, frame %d = %f", i, v)
		}
	}
	if out[0] != 0.25 {
		t.Errorf("Expected first block without feedback, got %f", out[0])
	}
}

func TestMasterGainClamped(t *testing.T) {
	c := newTestContext(t)
	src, _ := c.NewBufferSource(ones(16))
	src.Connect(c.Destination())
	src.Start(0)
	c.Destination().Gain().SetValue(10)

	out := c.Render(4)
	if out[0] != 4 {
		t.Errorf("Expected master gain clamped to 4, got %f", out[0])
	}
}

func TestSharedClock(t *testing.T) {
	clk := clock.New()
	c, err := NewContext(Options{Clock: clk})
	if err != nil {
		t.Fatalf("Failed to create context: %v", err)
	}
	if c.Clock() != clk {
		t.Errorf("Expected context to drive the supplied clock")
	}

	fired := false
	clk.After(5*time.Millisecond, func() { fired = true })
	c.Advance(5 * time.Millisecond)
	if !fired {
		t.Errorf("Expected scheduler events fired by context rendering")
	}
}
