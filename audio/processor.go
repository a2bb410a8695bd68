package audio

// ProcessorNode hosts a Processor in the graph
type ProcessorNode struct {
	*node
	proc Processor
}

// NewProcessor wraps p as a graph node
func (c *Context) NewProcessor(p Processor) (*ProcessorNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pn := &ProcessorNode{proc: p}
	n, err := c.alloc(pn)
	if err != nil {
		return nil, err
	}
	pn.node = n
	return pn, nil
}

// Processor returns the hosted stage
func (p *ProcessorNode) Processor() Processor {
	return p.proc
}

// Do runs fn with the render path excluded, for mutating the hosted stage safely
func (p *ProcessorNode) Do(fn func(Processor)) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	fn(p.proc)
}

func (p *ProcessorNode) process(q *quantum, in, out []float64) {
	p.proc.Process(in, out)
}
