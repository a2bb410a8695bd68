package noise

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/lixenwraith/vi-studio/constant"
)

var ErrInvalidDuration = errors.New("noise duration must be positive")

// New returns sampleRate*duration uniform samples in [-1, 1] tapered by (1 - i/n)^decay
// A nil rng uses a freshly seeded PCG source
func New(sampleRate int, duration, decay float64, rng *rand.Rand) ([]float64, error) {
	if !(duration > 0) || math.IsInf(duration, 0) || sampleRate <= 0 {
		return nil, ErrInvalidDuration
	}
	if rng == nil {
		rng = NewRand()
	}

	n := int(float64(sampleRate) * duration)
	if n == 0 {
		n = 1
	}
	buf := make([]float64, n)
	length := float64(n)
	for i := range buf {
		buf[i] = (rng.Float64()*2 - 1) * math.Pow(1-float64(i)/length, decay)
	}
	return buf, nil
}

// NewRand returns a randomly seeded generator
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeeded returns a deterministic generator for tests and offline renders
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// RMS returns the root mean square of buf, 0 for empty input
func RMS(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range buf {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(buf)))
}

type bankKey struct {
	duration float64
	decay    float64
}

// shape holds the bursts generated for one bankKey and the next one to hand out
type shape struct {
	bufs [][]float64
	next int
}

// Bank caches noise buffers by shape so percussive hits reuse them
// Each shape keeps up to constant.NoiseVariants bursts and rotates through them,
// so consecutive hits do not replay the same samples
// Returned buffers are shared and must not be written
type Bank struct {
	mu         sync.Mutex
	sampleRate int
	rng        *rand.Rand
	store      map[bankKey]*shape
}

// NewBank creates a cache generating at sampleRate; nil rng seeds randomly
func NewBank(sampleRate int, rng *rand.Rand) *Bank {
	if rng == nil {
		rng = NewRand()
	}
	return &Bank{
		sampleRate: sampleRate,
		rng:        rng,
		store:      make(map[bankKey]*shape),
	}
}

// Get returns the next burst for the shape, generating it until the shape has all its variants
func (b *Bank) Get(duration, decay float64) ([]float64, error) {
	key := bankKey{duration, decay}

	b.mu.Lock()
	defer b.mu.Unlock()

	sh, ok := b.store[key]
	if !ok || len(sh.bufs) < constant.NoiseVariants {
		buf, err := New(b.sampleRate, duration, decay, b.rng)
		if err != nil {
			return nil, err
		}
		if !ok {
			sh = &shape{}
			b.store[key] = sh
		}
		sh.bufs = append(sh.bufs, buf)
		sh.next = 0
		return buf, nil
	}

	buf := sh.bufs[sh.next]
	sh.next = (sh.next + 1) % len(sh.bufs)
	return buf, nil
}

// Len returns the number of cached shapes
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.store)
}

// Variants returns the number of bursts cached for the shape
func (b *Bank) Variants(duration, decay float64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sh, ok := b.store[bankKey{duration, decay}]; ok {
		return len(sh.bufs)
	}
	return 0
}
