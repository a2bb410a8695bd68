package effects

import "math"

// WaveShaper maps each sample through a transfer curve spanning [-1, 1]
// A curve shorter than two points passes the signal through
type WaveShaper struct {
	curve []float64
}

func NewWaveShaper(curve []float64) *WaveShaper {
	return &WaveShaper{curve: curve}
}

// SetCurve replaces the transfer curve, nil bypasses
func (w *WaveShaper) SetCurve(curve []float64) {
	w.curve = curve
}

// Curve returns the transfer curve
func (w *WaveShaper) Curve() []float64 {
	return w.curve
}

func (w *WaveShaper) Process(in, out []float64) {
	c := w.curve
	if len(c) < 2 {
		copy(out, in)
		return
	}
	last := float64(len(c) - 1)
	for i, x := range in {
		pos := (x + 1) * last / 2
		switch {
		case pos <= 0:
			out[i] = c[0]
		case pos >= last:
			out[i] = c[len(c)-1]
		default:
			j := int(pos)
			f := pos - float64(j)
			out[i] = c[j] + (c[j+1]-c[j])*f
		}
	}
}

// DistortionCurve builds a soft-clipping curve of n points; drive is 0..1
func DistortionCurve(drive float64, n int) []float64 {
	drive = math.Max(0, math.Min(drive, 1))
	const deg = math.Pi / 180
	k := drive * 20
	curve := make([]float64, n)
	for i := range curve {
		x := float64(i*2)/float64(n) - 1
		curve[i] = ((3 + k) * x * 20 * deg) / (math.Pi + k*math.Abs(x))
	}
	return curve
}
