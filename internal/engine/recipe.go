package engine

import (
	"context"
	"time"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

// step is one compiled recipe entry: the resolved descriptor plus its
// config with defaults filled in.
type step struct {
	desc   *operation.Descriptor
	config ir.StepConfig
}

func (s step) name() string {
	return s.desc.Name
}

func cloneSteps(steps []step) []step {
	out := make([]step, len(steps))
	for i, s := range steps {
		out[i] = step{desc: s.desc, config: s.config.Clone()}
	}
	return out
}

// compileLabels maps Label names to their step index. The first enabled
// Label with a given name wins.
func compileLabels(steps []step) map[string]int {
	labels := make(map[string]int)
	for i, s := range steps {
		if s.name() != ops.Label || s.config.Disabled {
			continue
		}
		name, err := operation.Args(s.config.Args).String(0)
		if err != nil {
			continue
		}
		if _, exists := labels[name]; !exists {
			labels[name] = i
		}
	}
	return labels
}

// Recipe is an ordered list of configured operations.
//
// A Recipe is not safe for concurrent modification, but once built it may
// be baked from several goroutines: every bake snapshots the step array.
type Recipe struct {
	eng    *Engine
	steps  []step
	labels map[string]int
}

// StepTiming is the wall-clock duration of one top-level step.
type StepTiming struct {
	Index   int
	Op      string
	Elapsed time.Duration
}

// Result is the outcome of a bake.
type Result struct {
	// Dish holds the final value (or the partial value when the bake failed).
	Dish *dish.Dish

	// Progress is the index the run stopped at: len(steps) on completion,
	// the breakpoint index when paused, or the failing step.
	Progress int

	Steps []StepTiming

	// Paused is set when the run stopped at a breakpoint.
	Paused bool

	// Registers lists every value captured by Register steps, in order.
	Registers []string
}

// AddOperations appends steps. Unknown operation names fail with
// ErrUnknownOperation and leave the recipe unchanged.
func (r *Recipe) AddOperations(configs ...ir.StepConfig) error {
	added := make([]step, 0, len(configs))
	for _, cfg := range configs {
		desc, err := r.eng.reg.Get(cfg.Op)
		if err != nil {
			return err
		}
		cfg = cfg.Clone()
		cfg.Args = desc.FillDefaults(cfg.Args)
		added = append(added, step{desc: desc, config: cfg})
	}
	r.steps = append(r.steps, added...)
	r.labels = compileLabels(r.steps)
	return nil
}

// Len returns the number of steps.
func (r *Recipe) Len() int {
	return len(r.steps)
}

// Config returns a deep copy of the step configs, defaults included.
// Feeding it back through NewRecipe reconstructs an identical recipe.
func (r *Recipe) Config() []ir.StepConfig {
	out := make([]ir.StepConfig, len(r.steps))
	for i, s := range r.steps {
		out[i] = s.config.Clone()
	}
	return out
}

// NewState creates a top-level execution state over a snapshot of the
// recipe's steps.
func (r *Recipe) NewState(d *dish.Dish) *State {
	steps := cloneSteps(r.steps)
	return &State{
		Dish:    d,
		steps:   steps,
		labels:  r.labels,
		overlay: NewOverlay(),
		budget:  NewJumpBudget(r.eng.maxJumps),
	}
}

// Bake runs the recipe from the first step on a fresh state.
// The Result is returned even on error and holds the partial dish.
func (r *Recipe) Bake(ctx context.Context, d *dish.Dish) (*Result, error) {
	st := r.NewState(d)
	progress, err := r.Execute(ctx, d, 0, st)
	return &Result{
		Dish:      st.Dish,
		Progress:  progress,
		Steps:     st.timings,
		Paused:    st.paused,
		Registers: st.Registers,
	}, err
}

// Execute runs the recipe on d from step start and returns the index it
// stopped at. A nil state starts a fresh run; passing the state of a paused
// run resumes it, with breakpoint at start itself not pausing again.
func (r *Recipe) Execute(ctx context.Context, d *dish.Dish, start int, st *State) (int, error) {
	if st == nil {
		st = r.NewState(d)
	} else if d != nil {
		st.Dish = d
	}
	st.Progress = start
	st.start = start
	st.paused = false
	err := r.eng.run(ctx, st)
	return st.Progress, err
}
