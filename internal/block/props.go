package block

// Props is an insertion-ordered string map. Directive and Section props
// preserve source order so that rule interpolation and \i-style counters
// stay deterministic across runs — no example in the retrieved corpus ships
// an ordered-map library, so this is a small local type over a slice plus an
// index, the same shape the teacher uses for its own small collection
// helpers (see dsl.Container.Find, a linear scan over a slice of children).
type Props struct {
	keys   []string
	values map[string]string
}

// NewProps returns an empty Props.
func NewProps() *Props {
	return &Props{values: make(map[string]string)}
}

// Set assigns key=value, appending key to the iteration order the first time
// it is seen and overwriting the value on repeat assignment without moving
// its position.
func (p *Props) Set(key, value string) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key and whether it was present.
func (p *Props) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Delete removes key, if present, preserving the order of the rest.
func (p *Props) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The caller must not mutate it.
func (p *Props) Keys() []string {
	return p.keys
}

// Len returns the number of entries.
func (p *Props) Len() int {
	return len(p.keys)
}

// Clone returns an independent copy.
func (p *Props) Clone() *Props {
	if p == nil {
		return NewProps()
	}
	out := &Props{
		keys:   append([]string(nil), p.keys...),
		values: make(map[string]string, len(p.values)),
	}
	for k, v := range p.values {
		out.values[k] = v
	}
	return out
}
