package store

import (
	"fmt"

	"github.com/roach88/bake/internal/ir"
)

// marshalRecipe converts a step list to JSON TEXT for storage. Keys are
// sorted but strings are kept as written (no NFC normalization), so a
// replayed recipe sees exactly the original arguments.
func marshalRecipe(steps []ir.StepConfig) (string, error) {
	data, err := ir.MarshalIRValue(ir.StepsToIR(steps))
	if err != nil {
		return "", fmt.Errorf("marshal recipe: %w", err)
	}
	return string(data), nil
}

// unmarshalRecipe parses stored recipe TEXT back into steps.
// Uses ir.UnmarshalIRValue which handles large integers via json.Number
// to avoid float64 precision loss for values > 2^53.
func unmarshalRecipe(data string) ([]ir.StepConfig, error) {
	if data == "" || data == "[]" {
		return []ir.StepConfig{}, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal recipe: %w", err)
	}
	steps, err := ir.StepsFromIR(v)
	if err != nil {
		return nil, fmt.Errorf("unmarshal recipe: %w", err)
	}
	return steps, nil
}
