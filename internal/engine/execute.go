package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

// run is the sequencer. It executes st's steps from st.Progress until the
// instruction pointer leaves the step list, a breakpoint pauses the run, or
// a step fails.
func (e *Engine) run(ctx context.Context, st *State) error {
	for st.Progress >= 0 && st.Progress < len(st.steps) {
		i := st.Progress
		s := st.steps[i]
		abs := st.ForkOffset + i

		if err := ctx.Err(); err != nil {
			return &StepError{Index: abs, Op: s.name(), Err: err}
		}
		if s.config.Disabled {
			st.Progress = i + 1
			continue
		}
		if e.breakpoints && st.depth == 0 && s.config.Breakpoint && i != st.start {
			st.paused = true
			e.reporter.StepFinished(StepEvent{Seq: e.clock.Next(), Index: abs, Op: s.name(), Paused: true})
			return nil
		}

		ev := StepEvent{Seq: e.clock.Next(), Index: abs, Op: s.name(), Depth: st.depth}
		e.reporter.StepStarted(ev)
		began := e.now()

		var err error
		if s.desc.FlowControl {
			err = e.dispatch(ctx, st, i)
		} else {
			err = e.runStep(ctx, st, i)
			if err == nil {
				st.Progress = i + 1
			}
		}
		err = classify(err)

		ev.Seq = e.clock.Next()
		ev.Elapsed = e.now().Sub(began)
		ev.Err = err
		e.reporter.StepFinished(ev)
		if st.depth == 0 {
			st.timings = append(st.timings, StepTiming{Index: abs, Op: s.name(), Elapsed: ev.Elapsed})
		}

		if err != nil {
			slog.Debug("step failed", "step", abs, "op", s.name(), "error", err)
			return stepError(err, abs, s.name())
		}
	}
	return nil
}

// runStep coerces the dish to the step's input kind, runs the operation, and
// stores its result tagged with the output kind.
func (e *Engine) runStep(ctx context.Context, st *State, i int) (err error) {
	desc := st.steps[i].desc
	in, err := st.Dish.Get(desc.InputType)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = operation.Errorf("operation panicked: %v", r)
		}
	}()

	out, err := desc.Run(ctx, in, st.Args(i))
	if err != nil {
		return err
	}
	return st.Dish.Set(out, desc.OutputType)
}

// dispatch runs a flow-control step. Handlers leave st.Progress at the
// index of the next step to run.
func (e *Engine) dispatch(ctx context.Context, st *State, i int) error {
	switch name := st.steps[i].name(); name {
	case ops.Fork:
		return e.fork(ctx, st, i)
	case ops.Subsection:
		return e.subsection(ctx, st, i)
	case ops.Register:
		return e.register(st, i)
	case ops.Jump:
		return e.jump(st, i)
	case ops.ConditionalJump:
		return e.conditionalJump(st, i)
	case ops.Magic:
		return e.magic(ctx, st, i)
	case ops.Label, ops.Comment, ops.Merge:
		st.Progress = i + 1
		return nil
	case ops.Return:
		st.Progress = len(st.steps)
		return nil
	default:
		return &ControlFlowError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("no handler for flow-control operation %q", name),
		}
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
