package dish

import (
	"errors"
	"fmt"
)

// DataTypeError reports a coercion that has no path between two kinds, a
// payload that is malformed for the requested kind, or a Set whose Go value
// does not match the declared kind.
type DataTypeError struct {
	From    Kind
	To      Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DataTypeError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.From == e.To {
		return fmt.Sprintf("data type error: %s (%s)", msg, e.To)
	}
	return fmt.Sprintf("data type error: cannot convert %s to %s: %s", e.From, e.To, msg)
}

// Unwrap returns the underlying cause, if any.
func (e *DataTypeError) Unwrap() error {
	return e.Err
}

// IsDataTypeError returns true if err is or wraps a DataTypeError.
func IsDataTypeError(err error) bool {
	var de *DataTypeError
	return errors.As(err, &de)
}
