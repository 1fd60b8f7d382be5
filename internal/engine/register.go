package engine

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

// registerRef matches a register reference with any run of backslashes in
// front of it. An odd number of backslashes escapes the reference.
var registerRef = regexp2.MustCompile(`(\\*)\$R([0-9]{1,2})`, regexp2.None)

// register matches the extractor against the input and substitutes the
// captured groups into the string arguments of every later enabled step.
// The dish passes through unchanged.
func (e *Engine) register(st *State, i int) error {
	desc := st.steps[i].desc
	args := st.Args(i)
	extractor, err := args.String(0)
	if err != nil {
		return err
	}
	caseInsensitive, err := args.Bool(1)
	if err != nil {
		return err
	}
	multiline, err := args.Bool(2)
	if err != nil {
		return err
	}
	dotAll, err := args.Bool(3)
	if err != nil {
		return err
	}
	in, err := st.Dish.Get(desc.InputType)
	if err != nil {
		return err
	}

	re, err := ops.CompileRegex(extractor, caseInsensitive, multiline, dotAll)
	if err != nil {
		return operation.Wrap(err, "invalid extractor")
	}
	m, err := re.FindStringMatch(in.(string))
	if err != nil {
		return operation.Wrap(err, "extractor failed")
	}
	st.Progress = i + 1
	if m == nil {
		return nil
	}

	// registers[0] is the whole match; unmatched groups read as "".
	groups := m.Groups()
	registers := make([]string, len(groups))
	for g := range groups {
		if len(groups[g].Captures) > 0 {
			registers[g] = groups[g].String()
		}
	}

	for j := i + 1; j < len(st.steps); j++ {
		if st.steps[j].config.Disabled {
			continue
		}
		for a, v := range st.Args(j) {
			switch val := v.(type) {
			case ir.IRString:
				out, changed, err := substituteRegisters(string(val), registers, st.NumRegisters)
				if err != nil {
					return operation.Wrap(err, "register substitution failed")
				}
				if changed {
					st.overlay.Set(j, a, ir.IRString(out))
				}
			case ir.IRObject:
				s, ok := val["string"].(ir.IRString)
				if !ok {
					continue
				}
				out, changed, err := substituteRegisters(string(s), registers, st.NumRegisters)
				if err != nil {
					return operation.Wrap(err, "register substitution failed")
				}
				if changed {
					obj := ir.Clone(val).(ir.IRObject)
					obj["string"] = ir.IRString(out)
					st.overlay.Set(j, a, obj)
				}
			}
		}
	}

	st.NumRegisters += len(registers) - 1
	st.Registers = append(st.Registers, registers[1:]...)
	return nil
}

// substituteRegisters replaces $Rn references that fall inside the window
// of registers captured by this Register step. References outside the
// window are left untouched for a later Register step to fill.
func substituteRegisters(s string, registers []string, numRegisters int) (string, bool, error) {
	if !strings.Contains(s, "$R") {
		return s, false, nil
	}
	out, err := registerRef.ReplaceFunc(s, func(m regexp2.Match) string {
		slashes := m.GroupByNumber(1).String()
		n, _ := strconv.Atoi(m.GroupByNumber(2).String())
		index := n + 1
		if index <= numRegisters || index >= numRegisters+len(registers) {
			return m.String()
		}
		if len(slashes)%2 != 0 {
			return m.String()[1:]
		}
		return slashes + registers[index-numRegisters]
	}, -1, -1)
	if err != nil {
		return s, false, err
	}
	return out, out != s, nil
}
