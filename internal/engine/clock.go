package engine

import "sync/atomic"

// Clock is a monotonic logical clock for step events.
//
// Every StepEvent and BranchEvent is stamped with a strictly increasing seq.
// Parallel fork branches share the engine's clock, so seq still gives a
// total order of events even when wall-clock timings interleave.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues from start.
// The CLI seeds it from the bake log so seqs stay unique across runs.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
