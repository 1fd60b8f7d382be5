package ir

import (
	"encoding/json"
	"fmt"
)

// StepConfig is one serialized recipe step: the operation name plus the
// per-recipe configuration (argument values and flags). A recipe document
// is an ordered list of these and reconstructs an identical run.
type StepConfig struct {
	Op         string  `json:"op" yaml:"op"`
	Args       IRArray `json:"args" yaml:"args"`
	Disabled   bool    `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Breakpoint bool    `json:"breakpoint,omitempty" yaml:"breakpoint,omitempty"`
}

// Clone deep-copies the step, including its argument values.
func (s StepConfig) Clone() StepConfig {
	s.Args = CloneArray(s.Args)
	return s
}

// CloneSteps deep-copies a step list.
func CloneSteps(steps []StepConfig) []StepConfig {
	if steps == nil {
		return nil
	}
	out := make([]StepConfig, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}

// ToIR renders the step as an IRObject (used for canonical hashing).
func (s StepConfig) ToIR() IRObject {
	args := s.Args
	if args == nil {
		args = IRArray{}
	}
	return IRObject{
		"op":         IRString(s.Op),
		"args":       args,
		"disabled":   IRBool(s.Disabled),
		"breakpoint": IRBool(s.Breakpoint),
	}
}

// StepsToIR renders a step list as an IRArray.
func StepsToIR(steps []StepConfig) IRArray {
	arr := make(IRArray, len(steps))
	for i, s := range steps {
		arr[i] = s.ToIR()
	}
	return arr
}

// StepFromIR decodes one step from its object form.
// Missing args, disabled, and breakpoint fields take zero values.
func StepFromIR(v IRValue) (StepConfig, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return StepConfig{}, fmt.Errorf("step must be an object, got %T", v)
	}
	var s StepConfig
	op, ok := obj["op"].(IRString)
	if !ok || op == "" {
		return StepConfig{}, fmt.Errorf("step is missing a string \"op\" field")
	}
	s.Op = string(op)

	switch args := obj["args"].(type) {
	case nil, IRNull:
	case IRArray:
		s.Args = args
	default:
		// A bare scalar is shorthand for a single-argument list.
		s.Args = IRArray{args}
	}
	for _, flag := range []struct {
		key string
		dst *bool
	}{{"disabled", &s.Disabled}, {"breakpoint", &s.Breakpoint}} {
		switch b := obj[flag.key].(type) {
		case nil, IRNull:
		case IRBool:
			*flag.dst = bool(b)
		default:
			return StepConfig{}, fmt.Errorf("step %q: %s must be a boolean", s.Op, flag.key)
		}
	}
	return s, nil
}

// StepsFromIR decodes a step list from its array form.
func StepsFromIR(v IRValue) ([]StepConfig, error) {
	arr, ok := v.(IRArray)
	if !ok {
		return nil, fmt.Errorf("recipe must be a list of steps, got %T", v)
	}
	steps := make([]StepConfig, 0, len(arr))
	for i, elem := range arr {
		s, err := StepFromIR(elem)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// UnmarshalJSON accepts the same shapes as StepFromIR.
func (s *StepConfig) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	step, err := StepFromIR(v)
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// MarshalJSON writes the step with args always present.
func (s StepConfig) MarshalJSON() ([]byte, error) {
	type wire struct {
		Op         string          `json:"op"`
		Args       json.RawMessage `json:"args"`
		Disabled   bool            `json:"disabled,omitempty"`
		Breakpoint bool            `json:"breakpoint,omitempty"`
	}
	args := s.Args
	if args == nil {
		args = IRArray{}
	}
	raw, err := MarshalIRValue(args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire{Op: s.Op, Args: raw, Disabled: s.Disabled, Breakpoint: s.Breakpoint})
}
