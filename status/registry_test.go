package status

import (
	"reflect"
	"sync"
	"testing"
)

func TestMetricMapCachesPointers(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	a := m.Get("x")
	b := m.Get("x")
	if a != b {
		t.Errorf("Expected the same cell for the same key")
	}
	if _, ok := m.Lookup("y"); ok {
		t.Errorf("Expected Lookup not to create cells")
	}
	if m.Len() != 1 {
		t.Errorf("Expected 1 cell, got %d", m.Len())
	}
}

func TestMetricMapKeysSorted(t *testing.T) {
	m := NewMetricMap[AtomicString]()
	for _, k := range []string{"c", "a", "b"} {
		m.Get(k)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected sorted keys, got %v", got)
	}
}

func TestAtomicFloat(t *testing.T) {
	var f AtomicFloat
	if f.Get() != 0 {
		t.Errorf("Expected zero value 0, got %f", f.Get())
	}
	f.Set(0.5)
	if got := f.Add(0.25); got != 0.75 {
		t.Errorf("Expected 0.75, got %f", got)
	}

	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0.3, 0.3},
		{7, 1},
	}
	for _, tt := range tests {
		if got := f.SetClamped(tt.in, 0, 1); got != tt.want || f.Get() != tt.want {
			t.Errorf("Expected SetClamped(%f) = %f, got %f", tt.in, tt.want, got)
		}
	}
}

func TestAtomicFloatConcurrentAdd(t *testing.T) {
	var f AtomicFloat
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				f.Add(1)
			}
		}()
	}
	wg.Wait()
	if f.Get() != 8000 {
		t.Errorf("Expected 8000 after concurrent adds, got %f", f.Get())
	}
}

func TestAtomicStringTruncates(t *testing.T) {
	var s AtomicString
	if s.Load() != "" {
		t.Errorf("Expected empty zero value")
	}
	s.Store("a very long preset name that overflows")
	if got := len([]rune(s.Load())); got != MaxLabelLen {
		t.Errorf("Expected label truncated to %d runes, got %d", MaxLabelLen, got)
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Int(VoiceActive).Store(3)
	r.Bools.Get(AudioSilent).Store(true)
	r.Floats.Get(StudioVolume).Set(0.8)
	r.Strings.Get(StudioPreset).Store("lead")

	want := []Sample{
		{AudioSilent, "true"},
		{VoiceActive, "3"},
		{StudioVolume, "0.80"},
		{StudioPreset, "lead"},
	}
	if got := r.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if r.Len() != 4 {
		t.Errorf("Expected 4 metrics, got %d", r.Len())
	}
}

func TestNilRegistryInt(t *testing.T) {
	var r *Registry
	c := r.Int(VoiceTriggered)
	c.Add(1)
	if c.Load() != 1 {
		t.Errorf("Expected detached counter usable on nil registry")
	}
}
