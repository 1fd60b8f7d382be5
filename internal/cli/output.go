package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Bake failed, validation errors, scenarios failed, replay drift
	ExitCommandError = 2 // Command error (bad flags, unreadable files, database errors)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Error codes used in JSON responses.
const (
	CodeBakeFailed     = "E001"
	CodeInvalidRecipe  = "E002"
	CodeNotFound       = "E003"
	CodeReplayDrift    = "E004"
	CodeScenarioFailed = "E005"
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeOK writes a successful CLIResponse.
func writeOK(w io.Writer, data any) error {
	return writeJSON(w, CLIResponse{Status: "ok", Data: data})
}

// writeFailure writes an error CLIResponse carrying data as details.
func writeFailure(w io.Writer, code, message string, details any) error {
	return writeJSON(w, CLIResponse{
		Status: "error",
		Error:  &CLIError{Code: code, Message: message, Details: details},
	})
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeOutput writes a bake output. Pipes and files get the raw bytes; a
// terminal gets printable text with other bytes escaped, and a trailing
// newline.
func writeOutput(w io.Writer, out []byte) error {
	if !isTerminal(w) {
		_, err := w.Write(out)
		return err
	}
	_, err := fmt.Fprintln(w, escapeNonPrintable(out))
	return err
}

// escapeNonPrintable renders out as text, keeping printable runes and
// whitespace and escaping everything else Go-style.
func escapeNonPrintable(out []byte) string {
	buf := make([]byte, 0, len(out))
	for len(out) > 0 {
		r, size := utf8.DecodeRune(out)
		switch {
		case r == utf8.RuneError && size <= 1:
			buf = append(buf, fmt.Sprintf(`\x%02x`, out[0])...)
		case r == '\n' || r == '\t' || r == '\r' || unicode.IsPrint(r):
			buf = append(buf, out[:size]...)
		default:
			quoted := strconv.QuoteRune(r)
			buf = append(buf, quoted[1:len(quoted)-1]...)
		}
		out = out[size:]
	}
	return string(buf)
}
