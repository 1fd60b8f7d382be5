package engine

import (
	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

// jump moves execution to just after the named Label.
func (e *Engine) jump(st *State, i int) error {
	args := st.Args(i)
	label, err := args.String(0)
	if err != nil {
		return err
	}
	maxJumps, err := args.Int(1)
	if err != nil {
		return err
	}
	return e.takeJump(st, i, label, maxJumps, func() (bool, error) { return true, nil })
}

// conditionalJump jumps when the input matches the regex, or when it does
// not and the match is inverted. An empty regex never jumps.
func (e *Engine) conditionalJump(st *State, i int) error {
	desc := st.steps[i].desc
	args := st.Args(i)
	pattern, err := args.String(0)
	if err != nil {
		return err
	}
	invert, err := args.Bool(1)
	if err != nil {
		return err
	}
	label, err := args.String(2)
	if err != nil {
		return err
	}
	maxJumps, err := args.Int(3)
	if err != nil {
		return err
	}
	return e.takeJump(st, i, label, maxJumps, func() (bool, error) {
		if pattern == "" {
			return false, nil
		}
		in, err := st.Dish.Get(desc.InputType)
		if err != nil {
			return false, err
		}
		re, err := ops.CompileRegex(pattern, false, false, false)
		if err != nil {
			return false, operation.Wrap(err, "invalid match regex")
		}
		matched, err := re.MatchString(in.(string))
		if err != nil {
			return false, operation.Wrap(err, "match regex failed")
		}
		return matched != invert, nil
	})
}

// takeJump resolves label and, while the state is under maxJumps and cond
// holds, moves the instruction pointer past the Label. Otherwise execution
// falls through to the next step.
func (e *Engine) takeJump(st *State, i int, label string, maxJumps int64, cond func() (bool, error)) error {
	target, ok := st.labels[label]
	if !ok {
		return NewUnknownLabelError(label)
	}
	st.Progress = i + 1
	if int64(st.NumJumps) >= maxJumps {
		return nil
	}
	jump, err := cond()
	if err != nil || !jump {
		return err
	}
	if err := st.budget.Take(); err != nil {
		return err
	}
	st.NumJumps++
	st.Progress = target + 1
	return nil
}
