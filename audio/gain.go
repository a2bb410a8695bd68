package audio

import "math"

// Gain scales its summed input by an automatable gain
type Gain struct {
	*node
	gain *Param
}

// NewGain creates a gain node at initial value v
func (c *Context) NewGain(v float64) (*Gain, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := &Gain{}
	n, err := c.alloc(g)
	if err != nil {
		return nil, err
	}
	g.node = n
	g.gain = newParam(c, n, v, math.Inf(-1), math.Inf(1))
	return g, nil
}

// Gain returns the gain param
func (g *Gain) Gain() *Param {
	return g.gain
}

func (g *Gain) params() []*Param {
	return []*Param{g.gain}
}

func (g *Gain) process(q *quantum, in, out []float64) {
	gain := g.gain.fill(q)
	for i := range out {
		out[i] = in[i] * gain[i]
	}
}

// Destination is the context's single output, with a master gain
type Destination struct {
	*node
	gain *Param
}

// Gain returns the master gain param
func (d *Destination) Gain() *Param {
	return d.gain
}

func (d *Destination) params() []*Param {
	return []*Param{d.gain}
}

func (d *Destination) process(q *quantum, in, out []float64) {
	gain := d.gain.fill(q)
	for i := range out {
		out[i] = in[i] * gain[i]
	}
}
