package audio

// BufferSource plays a mono sample buffer at the context sample rate
type BufferSource struct {
	*node
	data   []float64
	pos    int
	loop   bool
	window scheduled
}

// NewBufferSource creates an unstarted source over data
// The buffer is shared, not copied
func (c *Context) NewBufferSource(data []float64) (*BufferSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := &BufferSource{data: data}
	n, err := c.alloc(b)
	if err != nil {
		return nil, err
	}
	b.node = n
	return b, nil
}

// SetLoop repeats the buffer until stopped
func (b *BufferSource) SetLoop(loop bool) {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	b.loop = loop
}

// Start begins playback at time t
func (b *BufferSource) Start(t float64) error {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	return b.window.setStart(t)
}

// Stop ends playback at time t
func (b *BufferSource) Stop(t float64) error {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	return b.window.setStop(t)
}

// Len returns the buffer length in frames
func (b *BufferSource) Len() int {
	return len(b.data)
}

func (b *BufferSource) process(q *quantum, in, out []float64) {
	for i := range out {
		if !b.window.active(q.time(i)) {
			out[i] = 0
			continue
		}
		if b.pos >= len(b.data) {
			if !b.loop || len(b.data) == 0 {
				out[i] = 0
				continue
			}
			b.pos = 0
		}
		out[i] = b.data[b.pos]
		b.pos++
	}
}
