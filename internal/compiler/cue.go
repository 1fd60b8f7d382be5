package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/bake/internal/ir"
)

// ParseCUE compiles a CUE document and extracts its recipe field.
// Uses the CUE SDK's Go API directly (not the CLI).
func ParseCUE(filename string, data []byte) ([]ir.StepConfig, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	recipe := v.LookupPath(cue.ParsePath("recipe"))
	if !recipe.Exists() {
		return nil, &CompileError{Field: "recipe", Message: "recipe field is required", Pos: v.Pos()}
	}
	return CompileRecipe(recipe)
}

// CompileRecipe converts a CUE list of step structs into step records.
// Values must be concrete; definitions and defaults are resolved first.
func CompileRecipe(v cue.Value) ([]ir.StepConfig, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: "recipe", Message: "recipe must be a list of steps", Pos: v.Pos()}
	}

	var steps []ir.StepConfig
	for i := 0; iter.Next(); i++ {
		irv, err := cueToIR(iter.Value())
		if err != nil {
			return nil, err
		}
		step, err := ir.StepFromIR(irv)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("recipe[%d]", i),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// cueToIR converts a concrete CUE value to an IRValue.
// Floats are rejected so recipe arguments hash canonically.
func cueToIR(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for iter.Next() {
			elem, err := cueToIR(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := cueToIR(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   "args",
			Message: "fractional numbers are not allowed in recipes - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   "args",
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a recipe document error, with a source position
// when the document was CUE.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
