package engine

import (
	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
)

// State is the execution state of one run of a step list. A fork branch or
// subsection match gets its own State over its own copy of the sub-steps.
type State struct {
	// Progress is the index of the next step to run. Flow-control handlers
	// move it; a value at or past the end finishes the run.
	Progress int

	Dish *dish.Dish

	// NumRegisters counts register values already captured, which fixes
	// the $Rn window of the next Register step.
	NumRegisters int

	// NumJumps counts jumps taken by this state.
	NumJumps int

	// ForkOffset is added to local step indices to report absolute ones.
	ForkOffset int

	// Registers holds every captured value in order.
	Registers []string

	steps   []step
	labels  map[string]int
	overlay *Overlay
	budget  *JumpBudget
	depth   int
	start   int
	paused  bool
	timings []StepTiming
}

// Len returns the number of steps in the state's step list.
func (st *State) Len() int {
	return len(st.steps)
}

// Args resolves the effective arguments of step i: its configured values
// with any register overrides applied. The result is a copy.
func (st *State) Args(i int) operation.Args {
	args := ir.CloneArray(st.steps[i].config.Args)
	for a := range args {
		if v, ok := st.overlay.Get(i, a); ok {
			args[a] = ir.Clone(v)
		}
	}
	return operation.Args(args)
}

// flatten returns steps [from, to) with effective arguments baked into
// their configs, the fresh base a branch runs on.
func (st *State) flatten(from, to int) []step {
	out := make([]step, 0, to-from)
	for i := from; i < to; i++ {
		cfg := st.steps[i].config.Clone()
		cfg.Args = ir.IRArray(st.Args(i))
		out = append(out, step{desc: st.steps[i].desc, config: cfg})
	}
	return out
}

// branch creates the state for one fork branch or subsection match.
func (st *State) branch(sub []step, d *dish.Dish, offset int) *State {
	steps := cloneSteps(sub)
	return &State{
		Dish:         d,
		NumRegisters: st.NumRegisters,
		ForkOffset:   offset,
		steps:        steps,
		labels:       compileLabels(steps),
		overlay:      NewOverlay(),
		budget:       st.budget,
		depth:        st.depth + 1,
	}
}
