package engine

import "github.com/roach88/bake/internal/ir"

type argKey struct {
	step int
	arg  int
}

// Overlay holds per-run argument overrides keyed by (step, arg). Register
// writes here instead of into step configs, so the recipe a run started
// from is never modified.
//
// An Overlay belongs to one State and is not safe for concurrent use.
type Overlay struct {
	values map[argKey]ir.IRValue
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{values: make(map[argKey]ir.IRValue)}
}

// Get returns the override for (step, arg).
func (o *Overlay) Get(step, arg int) (ir.IRValue, bool) {
	v, ok := o.values[argKey{step, arg}]
	return v, ok
}

// Set records an override for (step, arg).
func (o *Overlay) Set(step, arg int, v ir.IRValue) {
	o.values[argKey{step, arg}] = v
}

// Len returns the number of overrides.
func (o *Overlay) Len() int {
	return len(o.values)
}

// Clone returns an independent copy.
func (o *Overlay) Clone() *Overlay {
	c := NewOverlay()
	for k, v := range o.values {
		c.values[k] = ir.Clone(v)
	}
	return c
}
