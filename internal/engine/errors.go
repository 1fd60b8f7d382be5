package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/operation"
)

// ErrUnknownOperation is returned when a recipe names an operation the
// registry does not have.
var ErrUnknownOperation = operation.ErrUnknownOperation

// ControlFlowError represents a failure of the flow-control protocol itself.
//
// Control-flow errors include:
//   - Unknown label: Jump or Conditional Jump names no Label
//   - Jump limit: the run exceeded the engine-wide jump budget
//   - Unsupported: a flow-control operation has no handler
type ControlFlowError struct {
	// Code identifies the error category.
	Code ControlFlowErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ControlFlowErrorCode categorizes control-flow errors.
type ControlFlowErrorCode string

const (
	// ErrCodeUnknownLabel indicates a jump target that names no Label.
	ErrCodeUnknownLabel ControlFlowErrorCode = "UNKNOWN_LABEL"

	// ErrCodeJumpLimit indicates the run exceeded the jump budget.
	ErrCodeJumpLimit ControlFlowErrorCode = "JUMP_LIMIT"

	// ErrCodeUnsupported indicates a flow-control operation with no handler.
	ErrCodeUnsupported ControlFlowErrorCode = "UNSUPPORTED_FLOW_OP"
)

// Error implements the error interface.
func (e *ControlFlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnknownLabelError creates a ControlFlowError for a missing jump target.
func NewUnknownLabelError(label string) *ControlFlowError {
	return &ControlFlowError{
		Code:    ErrCodeUnknownLabel,
		Message: fmt.Sprintf("no label named %q", label),
		Details: map[string]string{"label": label},
	}
}

// NewJumpLimitError creates a ControlFlowError for an exhausted jump budget.
func NewJumpLimitError(jumps, limit int) *ControlFlowError {
	return &ControlFlowError{
		Code:    ErrCodeJumpLimit,
		Message: fmt.Sprintf("run exceeded max jumps (%d > %d)", jumps, limit),
		Details: map[string]string{
			"jumps":     fmt.Sprintf("%d", jumps),
			"max_jumps": fmt.Sprintf("%d", limit),
		},
	}
}

// StepError attaches the failing step to an error. Index is absolute: inside
// a fork branch it includes the fork offset, so it points at the step in the
// top-level recipe.
type StepError struct {
	Index int
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s - %v (step %d)", e.Op, e.Err, e.Index)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// IsDataTypeError returns true if the error is a Dish coercion failure.
// Uses errors.As to handle wrapped errors.
func IsDataTypeError(err error) bool {
	return dish.IsDataTypeError(err)
}

// IsOperationError returns true if the error was raised by an operation.
// Uses errors.As to handle wrapped errors.
func IsOperationError(err error) bool {
	return operation.IsOperationError(err)
}

// IsControlFlowError returns true if the error is a ControlFlowError.
// Uses errors.As to handle wrapped errors.
func IsControlFlowError(err error) bool {
	var ce *ControlFlowError
	return errors.As(err, &ce)
}

// IsJumpLimitError returns true if the error is an exhausted jump budget.
func IsJumpLimitError(err error) bool {
	var ce *ControlFlowError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeJumpLimit
	}
	return false
}

// FailedStep returns the absolute index of the step that failed.
func FailedStep(err error) (int, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Index, true
	}
	return 0, false
}

// stepError wraps err for step index/op unless it already carries a step
// from a nested run.
func stepError(err error, index int, op string) error {
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{Index: index, Op: op, Err: err}
}

// classify keeps the error taxonomy closed: anything an operation returns
// that is not already typed becomes an OperationError.
func classify(err error) error {
	if err == nil || dish.IsDataTypeError(err) || operation.IsOperationError(err) ||
		IsControlFlowError(err) || isCancellation(err) {
		return err
	}
	return &operation.OperationError{Message: err.Error(), Err: err}
}
