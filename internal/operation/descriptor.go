package operation

import (
	"context"
	"fmt"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
)

// RunFunc transforms a value already coerced to the descriptor's InputType.
// The returned value must match OutputType. Long-running operations should
// watch ctx.
type RunFunc func(ctx context.Context, in any, args Args) (any, error)

// Descriptor is the immutable definition of an operation.
type Descriptor struct {
	Name        string
	Module      string
	Description string
	InfoURL     string
	InputType   dish.Kind
	OutputType  dish.Kind
	Args        []ArgSpec

	// FlowControl operations receive the execution state instead of a value.
	FlowControl bool

	// ManualBake excludes the operation from automatic re-runs.
	ManualBake bool

	Run RunFunc
}

// Transform adapts a typed function to a RunFunc.
func Transform[In, Out any](fn func(ctx context.Context, in In, args Args) (Out, error)) RunFunc {
	return func(ctx context.Context, in any, args Args) (any, error) {
		v, ok := in.(In)
		if !ok {
			var zero In
			return nil, Errorf("unexpected input type %T (want %T)", in, zero)
		}
		return fn(ctx, v, args)
	}
}

// DefaultArgs builds the argument list an unconfigured step starts with.
func (d *Descriptor) DefaultArgs() ir.IRArray {
	args := make(ir.IRArray, len(d.Args))
	for i, spec := range d.Args {
		args[i] = spec.DefaultValue()
	}
	return args
}

// FillDefaults returns args extended with defaults for any missing trailing
// arguments. Extra arguments are kept; Validate reports them.
func (d *Descriptor) FillDefaults(args ir.IRArray) ir.IRArray {
	if len(args) >= len(d.Args) {
		return args
	}
	out := make(ir.IRArray, len(d.Args))
	copy(out, args)
	for i := len(args); i < len(d.Args); i++ {
		out[i] = d.Args[i].DefaultValue()
	}
	return out
}

// Signature renders "name(input -> output)" for listings.
func (d *Descriptor) Signature() string {
	return fmt.Sprintf("%s(%s -> %s)", d.Name, d.InputType, d.OutputType)
}
