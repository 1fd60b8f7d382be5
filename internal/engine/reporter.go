package engine

import (
	"log/slog"
	"sync"
	"time"
)

// StepEvent describes one step boundary.
type StepEvent struct {
	// Seq orders events; it comes from the engine Clock, not wall time.
	Seq int64

	// Index is the absolute step index (fork offset applied).
	Index int

	Op string

	// Depth is 0 for top-level steps and grows inside Fork and Subsection.
	Depth int

	// Elapsed is set on StepFinished.
	Elapsed time.Duration

	// Err is the step's error, if any.
	Err error

	// Paused marks a step the run stopped in front of at a breakpoint.
	Paused bool
}

// BranchEvent reports the completion of one branch of a Fork, Subsection,
// or Magic step.
type BranchEvent struct {
	Seq    int64
	Index  int
	Op     string
	Branch int
	Total  int
	Err    error
}

// Percent returns the completion percentage after this branch.
func (e BranchEvent) Percent() float64 {
	if e.Total == 0 {
		return 100
	}
	return float64(e.Branch+1) * 100 / float64(e.Total)
}

// Reporter receives the status side channel of a bake. Reporting never
// affects execution.
//
// Implementations must be safe for concurrent use: parallel fork branches
// report from their own goroutines.
type Reporter interface {
	StepStarted(StepEvent)
	StepFinished(StepEvent)
	BranchFinished(BranchEvent)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) StepStarted(StepEvent)      {}
func (NopReporter) StepFinished(StepEvent)     {}
func (NopReporter) BranchFinished(BranchEvent) {}

// LogReporter writes events to a slog.Logger at debug level; failures and
// pauses are logged at info.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// StepStarted implements Reporter.
func (r LogReporter) StepStarted(ev StepEvent) {
	r.logger().Debug("step started", "seq", ev.Seq, "step", ev.Index, "op", ev.Op, "depth", ev.Depth)
}

// StepFinished implements Reporter.
func (r LogReporter) StepFinished(ev StepEvent) {
	switch {
	case ev.Paused:
		r.logger().Info("paused at breakpoint", "seq", ev.Seq, "step", ev.Index, "op", ev.Op)
	case ev.Err != nil:
		r.logger().Info("step failed",
			"seq", ev.Seq, "step", ev.Index, "op", ev.Op, "depth", ev.Depth, "error", ev.Err)
	default:
		r.logger().Debug("step finished",
			"seq", ev.Seq, "step", ev.Index, "op", ev.Op, "depth", ev.Depth, "elapsed", ev.Elapsed)
	}
}

// BranchFinished implements Reporter.
func (r LogReporter) BranchFinished(ev BranchEvent) {
	r.logger().Debug("branch finished",
		"seq", ev.Seq, "step", ev.Index, "op", ev.Op,
		"branch", ev.Branch, "total", ev.Total, "percent", ev.Percent())
}

// MultiReporter fans events out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) StepStarted(ev StepEvent) {
	for _, r := range m {
		r.StepStarted(ev)
	}
}

func (m MultiReporter) StepFinished(ev StepEvent) {
	for _, r := range m {
		r.StepFinished(ev)
	}
}

func (m MultiReporter) BranchFinished(ev BranchEvent) {
	for _, r := range m {
		r.BranchFinished(ev)
	}
}

// RecordingReporter keeps every event in memory. Used by tests and the
// scenario harness.
type RecordingReporter struct {
	mu       sync.Mutex
	Steps    []StepEvent
	Branches []BranchEvent
}

// StepStarted implements Reporter. Only finished events are recorded.
func (r *RecordingReporter) StepStarted(StepEvent) {}

// StepFinished implements Reporter.
func (r *RecordingReporter) StepFinished(ev StepEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, ev)
}

// BranchFinished implements Reporter.
func (r *RecordingReporter) BranchFinished(ev BranchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Branches = append(r.Branches, ev)
}

// Ops returns the operation names of finished steps in seq order.
func (r *RecordingReporter) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Steps))
	for i, ev := range r.Steps {
		out[i] = ev.Op
	}
	return out
}
