package engine

import (
	"context"
	"encoding/json"

	"github.com/roach88/bake/internal/magic"
	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

// magic hands the dish bytes to the engine's Proposer and stores the ranked
// candidates as JSON. The step's depth is clamped to the engine's limit.
func (e *Engine) magic(ctx context.Context, st *State, i int) error {
	desc := st.steps[i].desc
	args := st.Args(i)
	depth, err := args.Int(0)
	if err != nil {
		return err
	}
	intensive, err := args.Bool(1)
	if err != nil {
		return err
	}
	extLang, err := args.Bool(2)
	if err != nil {
		return err
	}
	crib, err := args.String(3)
	if err != nil {
		return err
	}
	in, err := st.Dish.Get(desc.InputType)
	if err != nil {
		return err
	}

	opts := magic.Options{
		Depth:     clamp(int(depth), 0, e.magicDepth),
		Fanout:    e.magicFanout,
		Intensive: intensive,
		ExtLang:   extLang,
	}
	if crib != "" {
		opts.Crib, err = ops.CompileRegex(crib, true, false, false)
		if err != nil {
			return operation.Wrap(err, "invalid crib")
		}
	}

	candidates, err := e.proposer.Propose(ctx, in.([]byte), opts)
	if err != nil {
		if isCancellation(err) {
			return err
		}
		return operation.Wrap(err, "magic search failed")
	}
	e.reporter.BranchFinished(BranchEvent{
		Seq:    e.clock.Next(),
		Index:  st.ForkOffset + i,
		Op:     desc.Name,
		Branch: len(candidates) - 1,
		Total:  len(candidates),
	})

	// Store plain JSON data so later steps see the same shape a decoded
	// document would have.
	raw, err := json.Marshal(candidates)
	if err != nil {
		return operation.Wrap(err, "encode candidates")
	}
	var ranking []any
	if err := json.Unmarshal(raw, &ranking); err != nil {
		return operation.Wrap(err, "decode candidates")
	}
	if ranking == nil {
		ranking = []any{}
	}
	if err := st.Dish.Set(ranking, desc.OutputType); err != nil {
		return err
	}
	st.Progress = i + 1
	return nil
}
