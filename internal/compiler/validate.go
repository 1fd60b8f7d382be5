package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

// Diagnostic codes. E1xx are errors, W2xx warnings.
const (
	ErrUnknownOperation = "E101" // op names no registered operation
	ErrTooManyArgs      = "E102" // more arguments than the schema declares
	ErrArgType          = "E103" // argument value has the wrong type
	ErrArgOption        = "E104" // option value is not one of the choices
	ErrUnknownLabel     = "E105" // jump target names no Label

	WarnUnclosedBlock  = "W201" // Fork or Subsection without a Merge
	WarnDuplicateLabel = "W202" // a later Label reuses a name; the first wins
	WarnStrayMerge     = "W203" // Merge with no open block
	WarnDynamicLabel   = "W204" // jump target depends on a register
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one finding about a recipe.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Step     int      `json:"step"`
	Op       string   `json:"op,omitempty"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("[%s] step %d (%s): %s", d.Code, d.Step, d.Op, d.Message)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	return slices.ContainsFunc(diags, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}

// Validate checks steps against the registry. Returns all findings (does
// not fail fast), ordered by step.
//
// Arguments that reference a register ($Rn) are only type-checked loosely:
// their final value is known at run time.
func Validate(reg *operation.Registry, steps []ir.StepConfig) []Diagnostic {
	v := &validator{reg: reg}
	labels := make(map[string]int)
	for i, s := range steps {
		if s.Op != ops.Label || s.Disabled || len(s.Args) == 0 {
			continue
		}
		name, ok := s.Args[0].(ir.IRString)
		if !ok {
			continue
		}
		if first, exists := labels[string(name)]; exists {
			v.warn(i, s.Op, WarnDuplicateLabel, fmt.Sprintf("label %q already defined at step %d; jumps go there", name, first))
			continue
		}
		labels[string(name)] = i
	}

	var open []int
	for i, s := range steps {
		desc, ok := reg.Lookup(s.Op)
		if !ok {
			v.err(i, s.Op, ErrUnknownOperation, fmt.Sprintf("unknown operation %q", s.Op))
			continue
		}
		v.checkArgs(i, desc, s.Args)

		if s.Disabled {
			continue
		}
		switch {
		case ops.OpensBlock(s.Op):
			open = append(open, i)
		case s.Op == ops.Merge:
			if len(open) == 0 {
				v.warn(i, s.Op, WarnStrayMerge, "merge has no open fork or subsection")
				continue
			}
			mergeAll := true
			if len(s.Args) > 0 {
				if b, ok := s.Args[0].(ir.IRBool); ok {
					mergeAll = bool(b)
				}
			}
			if mergeAll {
				open = open[:0]
			} else {
				open = open[:len(open)-1]
			}
		case s.Op == ops.Jump || s.Op == ops.ConditionalJump:
			idx := 0
			if s.Op == ops.ConditionalJump {
				idx = 2
			}
			v.checkLabel(i, s, idx, labels)
		}
	}
	for _, i := range open {
		v.warn(i, steps[i].Op, WarnUnclosedBlock, "block is not closed by a Merge; it runs to the end of the recipe")
	}

	slices.SortStableFunc(v.diags, func(a, b Diagnostic) int {
		return a.Step - b.Step
	})
	return v.diags
}

type validator struct {
	reg   *operation.Registry
	diags []Diagnostic
}

func (v *validator) err(step int, op, code, msg string) {
	v.diags = append(v.diags, Diagnostic{Severity: SeverityError, Step: step, Op: op, Code: code, Message: msg})
}

func (v *validator) warn(step int, op, code, msg string) {
	v.diags = append(v.diags, Diagnostic{Severity: SeverityWarning, Step: step, Op: op, Code: code, Message: msg})
}

func (v *validator) checkArgs(i int, desc *operation.Descriptor, args ir.IRArray) {
	if len(args) > len(desc.Args) {
		v.err(i, desc.Name, ErrTooManyArgs,
			fmt.Sprintf("%d arguments given, %s takes %d", len(args), desc.Name, len(desc.Args)))
	}
	for a, val := range args {
		if a >= len(desc.Args) {
			break
		}
		spec := desc.Args[a]
		if referencesRegister(val) {
			continue
		}
		if err := spec.Check(val); err != nil {
			code := ErrArgType
			if _, isString := val.(ir.IRString); isString &&
				(spec.Type == operation.ArgOption || spec.Type == operation.ArgPopulateOption) {
				code = ErrArgOption
			}
			v.err(i, desc.Name, code, fmt.Sprintf("argument %d: %v", a, err))
		}
	}
}

func (v *validator) checkLabel(i int, s ir.StepConfig, idx int, labels map[string]int) {
	if idx >= len(s.Args) {
		if _, ok := labels[""]; !ok {
			v.err(i, s.Op, ErrUnknownLabel, "no label name given")
		}
		return
	}
	name, ok := s.Args[idx].(ir.IRString)
	if !ok {
		return
	}
	if referencesRegister(name) {
		v.warn(i, s.Op, WarnDynamicLabel, fmt.Sprintf("label %q is resolved at run time", name))
		return
	}
	if _, exists := labels[string(name)]; !exists {
		v.err(i, s.Op, ErrUnknownLabel, fmt.Sprintf("no label named %q", name))
	}
}

// referencesRegister reports whether a string or toggle argument contains
// a $Rn reference.
func referencesRegister(v ir.IRValue) bool {
	switch val := v.(type) {
	case ir.IRString:
		return strings.Contains(string(val), "$R")
	case ir.IRObject:
		if s, ok := val["string"].(ir.IRString); ok {
			return strings.Contains(string(s), "$R")
		}
	}
	return false
}
