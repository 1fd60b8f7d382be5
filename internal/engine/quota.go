package engine

import "sync/atomic"

// DefaultMaxJumps is the default number of jumps one bake may take across
// all Jump and Conditional Jump steps, fork branches included.
const DefaultMaxJumps = 10000

// JumpBudget bounds the total number of jumps in one bake.
//
// Each Jump step carries its own "maximum jumps" argument, and execution
// simply falls through once a state's counter reaches it. That per-step
// limit resets in every fork branch, so nested loops can still multiply.
// The budget is shared by the whole bake and turns runaway control flow into
// a ControlFlowError.
//
// Thread-safety: JumpBudget is safe for concurrent use by parallel branches.
type JumpBudget struct {
	limit int64
	used  atomic.Int64
}

// NewJumpBudget creates a budget allowing limit jumps. A limit of zero or
// less disables the budget.
func NewJumpBudget(limit int) *JumpBudget {
	return &JumpBudget{limit: int64(limit)}
}

// Take records one jump and fails once the budget is exceeded.
func (b *JumpBudget) Take() error {
	n := b.used.Add(1)
	if b.limit > 0 && n > b.limit {
		return NewJumpLimitError(int(n), int(b.limit))
	}
	return nil
}

// Used returns the number of jumps taken so far.
func (b *JumpBudget) Used() int {
	return int(b.used.Load())
}

// Limit returns the configured limit.
func (b *JumpBudget) Limit() int {
	return int(b.limit)
}
