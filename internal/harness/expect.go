package harness

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// checkExpectation compares the bake outcome with the scenario's expect
// clause and returns one message per mismatch.
func checkExpectation(e *Expectation, r *Result) []string {
	var errs []string
	if e == nil {
		if r.Error != "" {
			errs = append(errs, fmt.Sprintf("unexpected bake error: %s", r.Error))
		}
		return errs
	}

	switch {
	case e.Error == "" && r.Error != "":
		errs = append(errs, fmt.Sprintf("unexpected bake error: %s", r.Error))
	case e.Error != "" && r.Error == "":
		errs = append(errs, fmt.Sprintf("expected bake error containing %q, bake succeeded", e.Error))
	case e.Error != "" && !strings.Contains(r.Error, e.Error):
		errs = append(errs, fmt.Sprintf("expected bake error containing %q, got %q", e.Error, r.Error))
	}

	if e.ErrorStep != nil && *e.ErrorStep != r.ErrorStep {
		errs = append(errs, fmt.Sprintf("expected error_step %d, got %d", *e.ErrorStep, r.ErrorStep))
	}

	if e.Output != nil && *e.Output != string(r.Output) {
		errs = append(errs, fmt.Sprintf("expected output %q, got %q", *e.Output, r.Output))
	}
	if e.OutputHex != "" {
		if got := hex.EncodeToString(r.Output); !strings.EqualFold(got, e.OutputHex) {
			errs = append(errs, fmt.Sprintf("expected output_hex %s, got %s", e.OutputHex, got))
		}
	}
	if e.OutputKind != "" && e.OutputKind != r.OutputKind {
		errs = append(errs, fmt.Sprintf("expected output_kind %s, got %s", e.OutputKind, r.OutputKind))
	}

	if e.Paused != r.Paused {
		errs = append(errs, fmt.Sprintf("expected paused=%t, got paused=%t", e.Paused, r.Paused))
	}

	if e.Registers != nil && !slices.Equal(e.Registers, r.Registers) {
		errs = append(errs, fmt.Sprintf("expected registers %q, got %q", e.Registers, r.Registers))
	}
	return errs
}
