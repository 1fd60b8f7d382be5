package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/queryir"
	"github.com/roach88/bake/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s%s (step %d) %s\n",
				event.Seq, strings.Repeat("  ", int(event.Depth)), event.Op, event.Index, event.Status)
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains the op, optionally with
// a given status.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Op == assertion.Op && (assertion.Status == "" || event.Status == assertion.Status) {
			return nil
		}
	}

	expected := "op " + assertion.Op
	if assertion.Status != "" {
		expected += " with status " + assertion.Status
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if ops appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed); each
// expected op is matched at its first position after the previous match,
// so an op may be listed more than once.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Ops {
		found := false
		for pos < len(trace) {
			pos++
			if trace[pos-1].Op == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual:   fmt.Sprintf("%s not found after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks that exactly one logged row matches Where and
// that it holds the Expect values (subset semantics). The query goes
// through the history filter IR, so table and column names are checked
// against the store's history schema before any SQL is built.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	filter, err := whereFilter(assertion.Where)
	if err != nil {
		return err
	}

	var rows []map[string]ir.IRValue
	switch assertion.Table {
	case store.TableBakes:
		bakes, err := st.History(ctx, filter, 0)
		if err != nil {
			return queryFailed(assertion, err)
		}
		for _, b := range bakes {
			rows = append(rows, bakeRow(b))
		}
	case store.TableSteps:
		steps, err := st.StepHistory(ctx, filter, 0)
		if err != nil {
			return queryFailed(assertion, err)
		}
		for _, s := range steps {
			rows = append(rows, stepRow(s))
		}
	default:
		return fmt.Errorf("final_state: unknown table %q (want %s or %s)", assertion.Table, store.TableBakes, store.TableSteps)
	}

	whereDesc := formatWhereClause(assertion.Where)
	switch len(rows) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(rows)),
		}
	}

	actualRow := rows[0]
	for _, key := range sortedKeys(assertion.Expect) {
		actual, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in %s rows", key, assertion.Table),
			}
		}
		expected, err := ir.FromGo(assertion.Expect[key])
		if err != nil {
			return fmt.Errorf("final_state: expect.%s: %w", key, err)
		}
		if !ir.Equal(expected, actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, ir.ToGo(expected)),
				Actual:   fmt.Sprintf("field %q = %v", key, ir.ToGo(actual)),
			}
		}
	}

	return nil
}

func queryFailed(assertion Assertion, err error) error {
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("query table %s", assertion.Table),
		Actual:   fmt.Sprintf("query error: %v", err),
	}
}

// whereFilter converts a where map into an Equals conjunction. Keys are
// sorted for deterministic SQL.
func whereFilter(where map[string]any) (queryir.Predicate, error) {
	pairs := make([]queryir.Equals, 0, len(where))
	for _, key := range sortedKeys(where) {
		v, err := ir.FromGo(where[key])
		if err != nil {
			return nil, fmt.Errorf("final_state: where.%s: %w", key, err)
		}
		pairs = append(pairs, queryir.Equals{Field: key, Value: v})
	}
	return queryir.Where(pairs...), nil
}

func bakeRow(b ir.BakeRecord) map[string]ir.IRValue {
	return map[string]ir.IRValue{
		"id":            ir.IRString(b.ID),
		"recipe_hash":   ir.IRString(b.RecipeHash),
		"input_hash":    ir.IRString(b.InputHash),
		"status":        ir.IRString(b.Status),
		"error_step":    ir.IRInt(b.ErrorStep),
		"error_message": ir.IRString(b.ErrorMessage),
		"output_kind":   ir.IRString(b.OutputKind),
		"output":        ir.IRString(b.Output),
		"seq":           ir.IRInt(b.Seq),
	}
}

func stepRow(s ir.StepRecord) map[string]ir.IRValue {
	return map[string]ir.IRValue{
		"id":         ir.IRInt(s.ID),
		"bake_id":    ir.IRString(s.BakeID),
		"seq":        ir.IRInt(s.Seq),
		"step_index": ir.IRInt(s.StepIndex),
		"op":         ir.IRString(s.Op),
		"depth":      ir.IRInt(s.Depth),
		"elapsed_ns": ir.IRInt(s.ElapsedNS),
		"status":     ir.IRString(s.Status),
		"message":    ir.IRString(s.Message),
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
