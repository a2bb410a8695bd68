package audio

// renderer is the per-block DSP of a concrete node
type renderer interface {
	process(q *quantum, in, out []float64)
}

// quantum describes one render block
type quantum struct {
	id     uint64
	frames int
	t0     float64 // seconds at first frame
	dt     float64 // seconds per frame
}

func (q *quantum) time(i int) float64 {
	return q.t0 + float64(i)*q.dt
}

// Node is anything that can be wired into a Context graph
type Node interface {
	base() *node
}

// node holds the wiring and render cache shared by all node types
// All fields are guarded by the owning Context's mutex
type node struct {
	ctx  *Context
	impl renderer

	inputs    []*node
	outputs   []*node
	paramOuts []*Param

	stamp    uint64
	in, out  []float64
	disposed bool
}

func (n *node) base() *node { return n }

// Connect routes this node's output into dst's input
// Connecting twice is a no-op
func (n *node) Connect(dst Node) error {
	c := n.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	d := dst.base()
	if err := n.checkLink(d.ctx, d.disposed); err != nil {
		return err
	}
	for _, in := range d.inputs {
		if in == n {
			return nil
		}
	}
	d.inputs = append(d.inputs, n)
	n.outputs = append(n.outputs, d)
	return nil
}

// ConnectParam routes this node's output into p as audio-rate modulation
// The signal is summed onto the param's automation value
func (n *node) ConnectParam(p *Param) error {
	c := n.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := n.checkLink(p.ctx, p.owner != nil && p.owner.disposed); err != nil {
		return err
	}
	for _, m := range p.mods {
		if m == n {
			return nil
		}
	}
	p.mods = append(p.mods, n)
	n.paramOuts = append(n.paramOuts, p)
	return nil
}

func (n *node) checkLink(dstCtx *Context, dstDisposed bool) error {
	if dstCtx != n.ctx {
		return ErrForeignNode
	}
	if n.ctx.state == StateClosed {
		return ErrClosed
	}
	if n.disposed || dstDisposed {
		return ErrDisposed
	}
	return nil
}

// Disconnect removes every outgoing connection
func (n *node) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	n.disconnectLocked()
}

func (n *node) disconnectLocked() {
	for _, d := range n.outputs {
		d.inputs = removeNode(d.inputs, n)
	}
	n.outputs = nil
	for _, p := range n.paramOuts {
		p.mods = removeNode(p.mods, n)
	}
	n.paramOuts = nil
}

// Dispose detaches the node on both sides and releases it from the context
// Safe to call multiple times
func (n *node) Dispose() {
	c := n.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	n.disposeLocked()
}

func (n *node) disposeLocked() {
	if n.disposed {
		return
	}
	n.disconnectLocked()
	for _, src := range n.inputs {
		src.outputs = removeNode(src.outputs, n)
	}
	n.inputs = nil

	// Modulators feeding this node's params lose their edge too
	if owner, ok := n.impl.(paramOwner); ok {
		for _, p := range owner.params() {
			for _, m := range p.mods {
				m.paramOuts = removeParam(m.paramOuts, p)
			}
			p.mods = nil
		}
	}

	n.disposed = true
	n.ctx.live--
}

// Inputs returns the number of nodes connected into this node
func (n *node) Inputs() int {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	return len(n.inputs)
}

// Outputs returns the number of nodes and params this node feeds
func (n *node) Outputs() int {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	return len(n.outputs) + len(n.paramOuts)
}

// Disposed reports whether Dispose has run
func (n *node) Disposed() bool {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	return n.disposed
}

// pull renders the node once per quantum and returns the cached block
// A cycle observes the previous block's output, which acts as a one-block delay
func (n *node) pull(q *quantum) []float64 {
	out := n.out[:q.frames]
	if n.stamp == q.id {
		return out
	}
	n.stamp = q.id

	in := n.in[:q.frames]
	clear(in)
	for _, src := range n.inputs {
		buf := src.pull(q)
		for i := range in {
			in[i] += buf[i]
		}
	}

	n.impl.process(q, in, out)
	return out
}

// paramOwner is implemented by renderers exposing automatable params
type paramOwner interface {
	params() []*Param
}

func removeNode(list []*node, n *node) []*node {
	for i, v := range list {
		if v == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func removeParam(list []*Param, p *Param) []*Param {
	for i, v := range list {
		if v == p {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
