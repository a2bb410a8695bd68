package voice

import "sort"

// Pool maps note keys to their held voice, at most one per key
// Not synchronized; the owning Engine guards it
type Pool struct {
	voices map[string]*Voice
}

func NewPool() *Pool {
	return &Pool{voices: make(map[string]*Voice)}
}

func (p *Pool) Get(key string) (*Voice, bool) {
	v, ok := p.voices[key]
	return v, ok
}

func (p *Pool) Set(key string, v *Voice) {
	p.voices[key] = v
}

func (p *Pool) Delete(key string) {
	delete(p.voices, key)
}

// HasAny reports whether any key is held
func (p *Pool) HasAny() bool {
	return len(p.voices) > 0
}

func (p *Pool) Len() int {
	return len(p.voices)
}

// Keys returns the held keys sorted
func (p *Pool) Keys() []string {
	keys := make([]string, 0, len(p.voices))
	for k := range p.voices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
