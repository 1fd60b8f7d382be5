package operation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/bake/internal/ir"
)

// ErrUnknownOperation is returned when a name has no descriptor.
var ErrUnknownOperation = errors.New("unknown operation")

// Registry maps operation names to descriptors.
// Safe for concurrent use; registration normally happens once at startup.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]*Descriptor)}
}

// Register adds a descriptor. Names must be unique, and every ordinary
// operation needs a RunFunc.
func (r *Registry) Register(d Descriptor) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("operation name is required")
	}
	if !d.FlowControl && d.Run == nil {
		return fmt.Errorf("operation %q has no run function", d.Name)
	}
	if !d.InputType.Valid() || !d.OutputType.Valid() {
		return fmt.Errorf("operation %q declares an unknown dish kind", d.Name)
	}
	for i, spec := range d.Args {
		if spec.Type == ArgPopulateOption && (spec.Target < 0 || spec.Target >= len(d.Args) || spec.Target == i) {
			return fmt.Errorf("operation %q: argument %q targets invalid index %d", d.Name, spec.Name, spec.Target)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[d.Name]; exists {
		return fmt.Errorf("operation %q already registered", d.Name)
	}
	desc := d
	desc.Args = slices.Clone(d.Args)
	r.ops[d.Name] = &desc
	return nil
}

// MustRegister registers descriptors and panics on the first error.
// Used for the built-in catalogue.
func (r *Registry) MustRegister(ds ...Descriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.ops[name]
	return d, ok
}

// Get is like Lookup but returns ErrUnknownOperation.
func (r *Registry) Get(name string) (*Descriptor, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return d, nil
}

// List returns all descriptors sorted by name.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.ops))
	for _, d := range r.ops {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *Descriptor) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}

// DefaultArgs returns the default argument list for name.
func (r *Registry) DefaultArgs(name string) (ir.IRArray, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return d.DefaultArgs(), nil
}
