package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 stored as its bit pattern
// Zero value is ready to use (0.0)
type AtomicFloat struct {
	bits atomic.Uint64
}

func (f *AtomicFloat) Set(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// SetClamped stores v bounded to [lo, hi] and returns the stored value
func (f *AtomicFloat) SetClamped(v, lo, hi float64) float64 {
	v = math.Max(lo, math.Min(v, hi))
	if math.IsNaN(v) {
		v = lo
	}
	f.Set(v)
	return v
}

// Add adds delta and returns the new value
func (f *AtomicFloat) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// MaxLabelLen bounds labels shown in the status line
const MaxLabelLen = 24

// AtomicString holds a short label (preset, pattern), truncated to MaxLabelLen
type AtomicString struct {
	ptr atomic.Pointer[string]
}

func (s *AtomicString) Store(v string) {
	if r := []rune(v); len(r) > MaxLabelLen {
		v = string(r[:MaxLabelLen])
	}
	s.ptr.Store(&v)
}

func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
