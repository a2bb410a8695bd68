package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/vi-studio/constant"
)

func TestSoftLimit(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.5, 0.5},
		{-0.8, -0.8},
		{0.9, 0.8 + 0.2*(1-1/1.5)},
		{-0.9, -0.8 - 0.2*(1-1/1.5)},
		{100, 0.8 + 0.2*(1-1/497.0)},
	}
	for _, tt := range tests {
		got := softLimit(tt.in)
		if d := got - tt.want; d > 1e-9 || d < -1e-9 {
			t.Errorf("softLimit(%v) = %v, expected %v", tt.in, got, tt.want)
		}
		if got > 1 || got < -1 {
			t.Errorf("softLimit(%v) = %v outside [-1, 1]", tt.in, got)
		}
	}
}

func TestFramesToBytes(t *testing.T) {
	out := make([]byte, 2*constant.AudioBytesPerFrame)
	framesToBytes([][2]float64{{0.5, -0.5}, {0, 1}}, out)

	want := []int16{16383, -16383, 0}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(out[i*2:])); got != w {
			t.Errorf("Sample %d = %d, expected %d", i, got, w)
		}
	}
	if got := int16(binary.LittleEndian.Uint16(out[6:])); got <= 16383 {
		t.Errorf("Expected full scale right channel, got %d", got)
	}
}

func TestPipeSinkStreamsToPlayer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script players")
	}
	capture := filepath.Join(t.TempDir(), "pcm.raw")
	t.Setenv("PCM_OUT", capture)
	fakePlayer(t, "aplay", `/bin/cat > "$PCM_OUT"`)

	p := &pipeSink{}
	if err := p.Init(beep.SampleRate(8000), 64); err != nil {
		t.Fatalf("Init: %v", err)
	}

	frames := 200
	p.Play(beep.Take(frames, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.25, 0.25}
		}
		return len(samples), true
	})))
	p.wg.Wait()
	p.Close()

	data, err := os.ReadFile(capture)
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	if len(data) != frames*constant.AudioBytesPerFrame {
		t.Fatalf("Expected %d bytes, got %d", frames*constant.AudioBytesPerFrame, len(data))
	}
	level := 0.25
	if got := int16(binary.LittleEndian.Uint16(data)); got != int16(level*32767) {
		t.Errorf("Expected first sample %d, got %d", int16(level*32767), got)
	}
}

func TestPipeSinkNoPlayer(t *testing.T) {
	if runtime.GOOS == "freebsd" {
		t.Skip("OSS device may exist")
	}
	t.Setenv("PATH", t.TempDir())
	p := &pipeSink{}
	if err := p.Init(beep.SampleRate(8000), 64); err == nil {
		t.Error("Expected Init to fail without a player")
	}
}
