package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/magic"
	"github.com/roach88/bake/internal/operation"
)

// Magic depth limits. The Magic step's own depth argument is clamped to the
// engine's configured depth, which is itself clamped to MaxMagicDepth.
const (
	DefaultMagicDepth  = 3
	MaxMagicDepth      = 6
	DefaultMagicFanout = 10
)

// Engine holds the registry and the run-wide settings shared by every
// Recipe it builds.
//
// Thread-safety model:
//   - An Engine is immutable after New and safe for concurrent use.
//   - A Recipe may be baked concurrently; each bake has its own State.
//   - Reporters must tolerate concurrent calls when fork parallelism > 1.
type Engine struct {
	reg             *operation.Registry
	reporter        Reporter
	clock           *Clock
	now             func() time.Time
	maxJumps        int
	forkParallelism int
	magicDepth      int
	magicFanout     int
	proposer        magic.Proposer
	breakpoints     bool
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithReporter sets the status side channel. Default: NopReporter.
func WithReporter(r Reporter) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.reporter = r
		}
	}
}

// WithClock sets the logical clock used to stamp events.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithNow sets the time source for elapsed-time measurement.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMaxJumps sets the total jump budget per bake.
//
// Default: 10000 (DefaultMaxJumps). Zero or less disables the budget; the
// per-step maximum still applies.
func WithMaxJumps(n int) EngineOption {
	return func(e *Engine) {
		e.maxJumps = n
	}
}

// WithForkParallelism sets how many fork branches may run at once.
// Default: 1 (sequential). Output order never depends on this.
func WithForkParallelism(n int) EngineOption {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.forkParallelism = n
	}
}

// WithMagicDepth caps the depth a Magic step may search. Values above
// MaxMagicDepth are clamped.
func WithMagicDepth(n int) EngineOption {
	return func(e *Engine) {
		e.magicDepth = clamp(n, 0, MaxMagicDepth)
	}
}

// WithMagicFanout caps the number of branches Magic explores per level.
func WithMagicFanout(n int) EngineOption {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.magicFanout = n
	}
}

// WithProposer replaces the Magic search strategy.
// Default: magic.NewSpeculator over the engine's registry.
func WithProposer(p magic.Proposer) EngineOption {
	return func(e *Engine) {
		e.proposer = p
	}
}

// WithBreakpoints makes top-level steps flagged as breakpoints pause the run.
func WithBreakpoints(on bool) EngineOption {
	return func(e *Engine) {
		e.breakpoints = on
	}
}

// New creates an Engine over reg.
func New(reg *operation.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		reg:             reg,
		reporter:        NopReporter{},
		clock:           NewClock(),
		now:             time.Now,
		maxJumps:        DefaultMaxJumps,
		forkParallelism: 1,
		magicDepth:      DefaultMagicDepth,
		magicFanout:     DefaultMagicFanout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.proposer == nil {
		e.proposer = magic.NewSpeculator(reg)
	}

	slog.Debug("engine created",
		"operations", reg.Len(),
		"max_jumps", e.maxJumps,
		"fork_parallelism", e.forkParallelism,
		"magic_depth", e.magicDepth,
		"magic_fanout", e.magicFanout,
		"breakpoints", e.breakpoints,
	)
	return e
}

// Registry returns the registry the engine resolves operations against.
func (e *Engine) Registry() *operation.Registry {
	return e.reg
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// NewRecipe compiles configs into a Recipe run by this engine.
func (e *Engine) NewRecipe(configs ...ir.StepConfig) (*Recipe, error) {
	r := &Recipe{eng: e}
	if err := r.AddOperations(configs...); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRecipe compiles configs against reg with default engine settings.
func NewRecipe(reg *operation.Registry, configs ...ir.StepConfig) (*Recipe, error) {
	return New(reg).NewRecipe(configs...)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
