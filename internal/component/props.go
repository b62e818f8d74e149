package component

// Props is an ordered key to value mapping with unique keys. Setting an
// existing key overwrites the value in place, keeping the original position.
type Props struct {
	keys []string
	vals map[string]any
}

// NewProps builds a Props from alternating key/value pairs. It panics on an
// odd number of arguments or a non-string key; both are programmer errors.
func NewProps(pairs ...any) *Props {
	if len(pairs)%2 != 0 {
		panic("component: NewProps requires alternating key/value pairs")
	}
	p := &Props{vals: make(map[string]any, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic("component: NewProps keys must be strings")
		}
		p.Set(key, pairs[i+1])
	}
	return p
}

// Set stores value under key, preserving the key's existing position if it
// was already present.
func (p *Props) Set(key string, value any) *Props {
	if p.vals == nil {
		p.vals = make(map[string]any)
	}
	if _, exists := p.vals[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.vals[key] = value
	return p
}

// Get returns the value stored under key.
func (p *Props) Get(key string) (any, bool) {
	if p == nil || p.vals == nil {
		return nil, false
	}
	v, ok := p.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not mutate it.
func (p *Props) Keys() []string {
	if p == nil {
		return nil
	}
	return p.keys
}

// Len reports the number of keys.
func (p *Props) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Clone returns a shallow copy: keys and the map are fresh, values are
// shared.
func (p *Props) Clone() *Props {
	if p == nil {
		return NewProps()
	}
	out := &Props{
		keys: append([]string(nil), p.keys...),
		vals: make(map[string]any, len(p.vals)),
	}
	for k, v := range p.vals {
		out.vals[k] = v
	}
	return out
}
