package harness

import (
	"github.com/roach88/bake/internal/ir"
)

// TraceEvent is one logged step of a scenario bake, in seq order.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Index   int64  `json:"index"`
	Op      string `json:"op"`
	Depth   int64  `json:"depth"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// traceFromSteps converts logged step rows into trace events.
func traceFromSteps(steps []ir.StepRecord) []TraceEvent {
	trace := make([]TraceEvent, len(steps))
	for i, s := range steps {
		trace[i] = TraceEvent{
			Seq:     s.Seq,
			Index:   s.StepIndex,
			Op:      s.Op,
			Depth:   s.Depth,
			Status:  s.Status,
			Message: s.Message,
		}
	}
	return trace
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion held.
	Pass bool `json:"pass"`

	BakeID     string `json:"bake_id"`
	Status     string `json:"status"`
	Output     []byte `json:"output"`
	OutputKind string `json:"output_kind"`

	// Error is the bake error message, empty on success.
	Error string `json:"error,omitempty"`

	// ErrorStep is the failing step index, -1 when no step failed.
	ErrorStep int  `json:"error_step"`
	Paused    bool `json:"paused,omitempty"`

	Registers []string `json:"registers,omitempty"`

	// Trace contains the logged steps in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		ErrorStep: -1,
		Trace:     []TraceEvent{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
