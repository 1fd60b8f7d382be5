package operation

import (
	"errors"
	"fmt"
)

// OperationError is raised by an operation's own logic: a bad argument
// combination, an invalid key length, input the algorithm cannot handle.
type OperationError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// Errorf creates an OperationError with a formatted message.
func Errorf(format string, args ...any) *OperationError {
	return &OperationError{Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an OperationError around a library error.
func Wrap(err error, message string) *OperationError {
	return &OperationError{Message: message, Err: err}
}

// IsOperationError returns true if err is or wraps an OperationError.
func IsOperationError(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe)
}
